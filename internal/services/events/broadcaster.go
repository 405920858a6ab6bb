package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle/pkg/chat"
	"github.com/jwebster45206/chronicle/pkg/state"
)

// Broadcaster publishes typed session events to a Bus.
type Broadcaster struct {
	bus    Bus
	logger *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(bus Bus, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		bus:    bus,
		logger: logger,
	}
}

// PublishAdventureStarted publishes an adventure.started event
func (b *Broadcaster) PublishAdventureStarted(ctx context.Context, sessionID uuid.UUID, theme string, gs *state.GameState) error {
	return b.publish(ctx, sessionID, EventTypeAdventureStarted, map[string]any{
		"theme":      theme,
		"game_state": gs,
	})
}

// PublishStateUpdated publishes an adventure.state_updated event
func (b *Broadcaster) PublishStateUpdated(ctx context.Context, sessionID uuid.UUID, choice string, gs *state.GameState, historyLen int) error {
	return b.publish(ctx, sessionID, EventTypeStateUpdated, map[string]any{
		"choice":         choice,
		"game_state":     gs,
		"history_length": historyLen,
	})
}

// PublishAdventureEnded publishes an adventure.ended event
func (b *Broadcaster) PublishAdventureEnded(ctx context.Context, sessionID uuid.UUID, storyText string) error {
	return b.publish(ctx, sessionID, EventTypeAdventureEnded, map[string]any{
		"story_text": storyText,
	})
}

// PublishAdventureReset publishes an adventure.reset event
func (b *Broadcaster) PublishAdventureReset(ctx context.Context, sessionID uuid.UUID) error {
	return b.publish(ctx, sessionID, EventTypeAdventureReset, nil)
}

// PublishChatMessage publishes a chat.message event
func (b *Broadcaster) PublishChatMessage(ctx context.Context, sessionID uuid.UUID, msg chat.ChatMessage) error {
	return b.publish(ctx, sessionID, EventTypeChatMessage, map[string]any{
		"role":    msg.Role,
		"content": msg.Content,
	})
}

// PublishRequestFailed publishes a request.failed event
func (b *Broadcaster) PublishRequestFailed(ctx context.Context, sessionID uuid.UUID, operation, message string) error {
	return b.publish(ctx, sessionID, EventTypeRequestFailed, map[string]any{
		"status":    "failed",
		"operation": operation,
		"error":     message,
	})
}

// PublishCredentialRequired publishes a credential.required event
func (b *Broadcaster) PublishCredentialRequired(ctx context.Context, sessionID uuid.UUID, operation string) error {
	return b.publish(ctx, sessionID, EventTypeCredentialRequest, map[string]any{
		"operation": operation,
	})
}

func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, eventType EventType, data map[string]any) error {
	event := Event{
		Type:      eventType,
		SessionID: sessionID.String(),
		Timestamp: time.Now(),
		Data:      data,
	}
	if err := b.bus.Publish(ctx, sessionID, event); err != nil {
		b.logger.Warn("Event not delivered",
			"session_id", sessionID.String(),
			"event_type", eventType,
			"error", err)
		return err
	}
	return nil
}
