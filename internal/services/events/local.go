package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LocalBus fans events out in process. It is used when no Redis URL is
// configured, which is enough for a single API instance.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*localSub]struct{}
	logger *slog.Logger
}

type localSub struct {
	ch   chan Event
	done chan struct{}
	once sync.Once
}

var _ Bus = (*LocalBus)(nil)

func NewLocalBus(logger *slog.Logger) *LocalBus {
	return &LocalBus{
		subs:   make(map[uuid.UUID]map[*localSub]struct{}),
		logger: logger,
	}
}

// Publish never blocks. A subscriber whose buffer is full misses the event.
func (b *LocalBus) Publish(_ context.Context, sessionID uuid.UUID, event Event) error {
	if event.SessionID == "" {
		event.SessionID = sessionID.String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[sessionID] {
		select {
		case sub.ch <- event:
		default:
			b.logger.Warn("Dropping event for slow subscriber",
				"session_id", sessionID.String(),
				"event_type", event.Type)
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, sessionID uuid.UUID) (<-chan Event, func(), error) {
	sub := &localSub{ch: make(chan Event, subscriberBuffer), done: make(chan struct{})}

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[*localSub]struct{})
	}
	b.subs[sessionID][sub] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			b.mu.Lock()
			delete(b.subs[sessionID], sub)
			if len(b.subs[sessionID]) == 0 {
				delete(b.subs, sessionID)
			}
			close(sub.ch)
			close(sub.done)
			b.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-sub.done:
		}
	}()

	return sub.ch, cancel, nil
}

func (b *LocalBus) Ping(context.Context) error {
	return nil
}

// Subscribers returns the number of live subscriptions for a session.
func (b *LocalBus) Subscribers(sessionID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}
