package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateGetDelete(t *testing.T) {
	m := NewManager(time.Hour, testLogger())

	s := m.Create()
	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	view := got.View()
	assert.Equal(t, StatusNotStarted, view.Status)
	assert.NotNil(t, view.History)
	assert.NotNil(t, view.Chat)

	m.Delete(s.ID)
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_EvictExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(time.Hour, testLogger())
	m.now = func() time.Time { return now }

	old := m.Create()
	busy := m.Create()
	busy.mu.Lock()
	busy.advancing = true
	busy.mu.Unlock()

	now = now.Add(30 * time.Minute)
	fresh := m.Create()

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, m.EvictExpired())

	_, err := m.Get(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(busy.ID)
	assert.NoError(t, err, "sessions with a request in flight are kept")
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestManager_ZeroTTLNeverEvicts(t *testing.T) {
	m := NewManager(0, testLogger())
	m.Create()
	assert.Equal(t, 0, m.EvictExpired())
	assert.Equal(t, 1, m.Len())
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m := NewManager(time.Nanosecond, testLogger())
	m.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return m.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestManager_GetKeepsSessionAlive(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(time.Hour, testLogger())
	m.now = func() time.Time { return now }

	s := m.Create()

	now = now.Add(50 * time.Minute)
	_, err := m.Get(s.ID)
	require.NoError(t, err)

	now = now.Add(50 * time.Minute)
	assert.Equal(t, 0, m.EvictExpired(), "a lookup restarts the idle timer")

	now = now.Add(61 * time.Minute)
	assert.Equal(t, 1, m.EvictExpired())
}
