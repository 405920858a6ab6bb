package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns every live session in memory. Idle sessions expire after
// the configured TTL.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewManager(ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Create registers a new, not yet started session.
func (m *Manager) Create() *Session {
	s := newSession(m.now())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("Session created", "session_id", s.ID.String())
	return s
}

// Get looks up a session and counts the lookup as activity.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(m.now())
	return s, nil
}

func (m *Manager) Delete(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictExpired drops sessions idle for longer than the TTL. Sessions with a
// request in flight are never evicted.
func (m *Manager) EvictExpired() int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if s.idleSince(now) > m.ttl {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		m.logger.Info("Expired sessions evicted", "count", evicted, "remaining", len(m.sessions))
	}
	return evicted
}

// Run evicts expired sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("Session janitor stopped")
			return
		case <-ticker.C:
			m.EvictExpired()
		}
	}
}
