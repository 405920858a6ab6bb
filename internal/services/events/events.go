package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeAdventureStarted  EventType = "adventure.started"
	EventTypeStateUpdated      EventType = "adventure.state_updated"
	EventTypeAdventureEnded    EventType = "adventure.ended"
	EventTypeAdventureReset    EventType = "adventure.reset"
	EventTypeChatMessage       EventType = "chat.message"
	EventTypeRequestFailed     EventType = "request.failed"
	EventTypeCredentialRequest EventType = "credential.required"
)

// Event is a single change notification for one adventure session.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Bus fans session events out to subscribers.
type Bus interface {
	Publish(ctx context.Context, sessionID uuid.UUID, event Event) error

	// Subscribe returns a channel of events for sessionID and a function that
	// ends the subscription. The channel is closed when the subscription ends
	// or ctx is cancelled.
	Subscribe(ctx context.Context, sessionID uuid.UUID) (<-chan Event, func(), error)

	Ping(ctx context.Context) error
}

// ChannelName is the pub/sub channel for a session.
func ChannelName(sessionID uuid.UUID) string {
	return fmt.Sprintf("adventure-events:%s", sessionID.String())
}
