package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/chronicle/pkg/chat"
	"github.com/jwebster45206/chronicle/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRedisBus(t *testing.T) (*RedisBus, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBus(client, testLogger()), mr
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed before an event arrived")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestChannelName(t *testing.T) {
	id := uuid.MustParse("8d0c2c6e-3b0a-4a51-9b45-0d1e2f3a4b5c")
	assert.Equal(t, "adventure-events:8d0c2c6e-3b0a-4a51-9b45-0d1e2f3a4b5c", ChannelName(id))
}

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, 2, client.Options().DB)
	_ = client.Close()

	_, err = NewRedisClient("not a url")
	assert.Error(t, err)
}

func TestRedisBus_PublishSubscribe(t *testing.T) {
	bus, _ := newTestRedisBus(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, bus.Ping(ctx))

	ch, cancel, err := bus.Subscribe(ctx, id)
	require.NoError(t, err)
	defer cancel()

	b := NewBroadcaster(bus, testLogger())
	gs := &state.GameState{StoryText: "The gate opens.", Choices: []string{"Enter"}}
	require.NoError(t, b.PublishStateUpdated(ctx, id, "Knock", gs, 2))

	ev := receive(t, ch)
	assert.Equal(t, EventTypeStateUpdated, ev.Type)
	assert.Equal(t, id.String(), ev.SessionID)
	assert.Equal(t, "Knock", ev.Data["choice"])
	// Numbers round-trip through JSON as float64.
	assert.Equal(t, float64(2), ev.Data["history_length"])
	assert.False(t, ev.Timestamp.IsZero())
}

func TestRedisBus_IsolatesSessions(t *testing.T) {
	bus, _ := newTestRedisBus(t)
	ctx := context.Background()
	mine, other := uuid.New(), uuid.New()

	ch, cancel, err := bus.Subscribe(ctx, mine)
	require.NoError(t, err)
	defer cancel()

	b := NewBroadcaster(bus, testLogger())
	require.NoError(t, b.PublishAdventureReset(ctx, other))
	require.NoError(t, b.PublishChatMessage(ctx, mine, chat.NewAgentMessage("The runes are old.")))

	ev := receive(t, ch)
	assert.Equal(t, EventTypeChatMessage, ev.Type)
	assert.Equal(t, "The runes are old.", ev.Data["content"])
}

func TestRedisBus_CancelClosesChannel(t *testing.T) {
	bus, _ := newTestRedisBus(t)
	ch, cancel, err := bus.Subscribe(context.Background(), uuid.New())
	require.NoError(t, err)

	cancel()
	cancel() // idempotent

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestRedisBus_PublishFailsWhenDown(t *testing.T) {
	bus, mr := newTestRedisBus(t)
	mr.Close()

	err := bus.Publish(context.Background(), uuid.New(), Event{Type: EventTypeAdventureReset})
	assert.Error(t, err)
	assert.Error(t, bus.Ping(context.Background()))
}

func TestLocalBus_PublishSubscribe(t *testing.T) {
	bus := NewLocalBus(testLogger())
	ctx := context.Background()
	id := uuid.New()

	first, cancelFirst, err := bus.Subscribe(ctx, id)
	require.NoError(t, err)
	second, cancelSecond, err := bus.Subscribe(ctx, id)
	require.NoError(t, err)
	defer cancelSecond()
	assert.Equal(t, 2, bus.Subscribers(id))

	b := NewBroadcaster(bus, testLogger())
	require.NoError(t, b.PublishRequestFailed(ctx, id, "choose", "Your path was blocked by a temporal rift. Attempt the choice again."))

	for _, ch := range []<-chan Event{first, second} {
		ev := receive(t, ch)
		assert.Equal(t, EventTypeRequestFailed, ev.Type)
		assert.Equal(t, "choose", ev.Data["operation"])
		assert.Equal(t, id.String(), ev.SessionID)
	}

	cancelFirst()
	assert.Equal(t, 1, bus.Subscribers(id))
	_, ok := <-first
	assert.False(t, ok)
}

func TestLocalBus_ContextCancelUnsubscribes(t *testing.T) {
	bus := NewLocalBus(testLogger())
	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())

	ch, _, err := bus.Subscribe(ctx, id)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after context cancel")
	}
	assert.Equal(t, 0, bus.Subscribers(id))
}

func TestLocalBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewLocalBus(testLogger())
	id := uuid.New()
	_, cancel, err := bus.Subscribe(context.Background(), id)
	require.NoError(t, err)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			_ = bus.Publish(context.Background(), id, Event{Type: EventTypeChatMessage})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}
