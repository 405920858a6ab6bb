package session

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/chronicle/internal/story"
	"github.com/jwebster45206/chronicle/pkg/chat"
	"github.com/jwebster45206/chronicle/pkg/state"
)

// Status is the adventure lifecycle position of a session.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusEnded      Status = "ended"
)

// Session is one player's adventure. All fields are guarded by mu, which is
// never held across a network call.
type Session struct {
	ID uuid.UUID

	mu         sync.Mutex
	theme      string
	imageSize  state.ImageSize
	status     Status
	gameState  *state.GameState
	image      *story.Illustration
	history    []state.HistoryEntry
	chat       []chat.ChatMessage
	advancing  bool
	asking     bool
	epoch      uint64
	createdAt  time.Time
	lastActive time.Time
}

// View is an immutable snapshot of a session.
type View struct {
	ID        uuid.UUID            `json:"id"`
	Status    Status               `json:"status"`
	Theme     string               `json:"theme,omitempty"`
	ImageSize state.ImageSize      `json:"image_size,omitempty"`
	GameState *state.GameState     `json:"gameState,omitempty"`
	History   []state.HistoryEntry `json:"history"`
	Chat      []chat.ChatMessage   `json:"chat"`
	Advancing bool                 `json:"advancing"`
	Asking    bool                 `json:"asking"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:         uuid.New(),
		status:     StatusNotStarted,
		imageSize:  state.DefaultImageSize,
		createdAt:  now,
		lastActive: now,
	}
}

// View returns a deep snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	history := slices.Clone(s.history)
	if history == nil {
		history = []state.HistoryEntry{}
	}
	transcript := slices.Clone(s.chat)
	if transcript == nil {
		transcript = []chat.ChatMessage{}
	}
	return View{
		ID:        s.ID,
		Status:    s.status,
		Theme:     s.theme,
		ImageSize: s.imageSize,
		GameState: s.gameState.Clone(),
		History:   history,
		Chat:      transcript,
		Advancing: s.advancing,
		Asking:    s.asking,
		CreatedAt: s.createdAt,
		UpdatedAt: s.lastActive,
	}
}

// Image returns the illustration of the current scene, or nil.
func (s *Session) Image() *story.Illustration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// touch marks the session as used so the janitor keeps it.
func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	if now.After(s.lastActive) {
		s.lastActive = now
	}
	s.mu.Unlock()
}

// startableLocked reports why Start may not run now. Callers hold s.mu.
func (s *Session) startableLocked() error {
	if s.advancing {
		return ErrBusy
	}
	if s.status != StatusNotStarted {
		return ErrAlreadyStarted
	}
	return nil
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.advancing || s.asking {
		return 0
	}
	return now.Sub(s.lastActive)
}

// finishAdvance clears the advancing flag unless a reset already did.
func (s *Session) finishAdvance(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch {
		s.advancing = false
	}
	s.lastActive = time.Now()
}

func (s *Session) finishAsk(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch {
		s.asking = false
	}
	s.lastActive = time.Now()
}
