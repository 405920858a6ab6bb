package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const subscriberBuffer = 16

// RedisBus publishes events over Redis Pub/Sub so that any API instance can
// serve the SSE stream of a session.
type RedisBus struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Bus = (*RedisBus)(nil)

// NewRedisClient parses a redis:// URL and returns a client for it.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func NewRedisBus(client *redis.Client, logger *slog.Logger) *RedisBus {
	return &RedisBus{
		client: client,
		logger: logger,
	}
}

func (b *RedisBus) Publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := ChannelName(sessionID)
	if event.SessionID == "" {
		event.SessionID = sessionID.String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, sessionID uuid.UUID) (<-chan Event, func(), error) {
	channel := ChannelName(sessionID)
	pubsub := b.client.Subscribe(ctx, channel)

	// Wait for the confirmation so events published after Subscribe returns
	// are not missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			if err := pubsub.Close(); err != nil {
				b.logger.Error("Failed to close pubsub", "error", err)
			}
		})
	}

	msgs := pubsub.Channel()
	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}
	}()

	b.logger.Debug("Subscribed to channel", "channel", channel)
	return out, cancel, nil
}

func (b *RedisBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}
