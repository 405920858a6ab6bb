package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jwebster45206/chronicle/internal/logger"
	"github.com/jwebster45206/chronicle/internal/services"
	"github.com/jwebster45206/chronicle/internal/services/events"
	"github.com/jwebster45206/chronicle/internal/story"
	"github.com/jwebster45206/chronicle/pkg/chat"
	"github.com/jwebster45206/chronicle/pkg/state"
)

// MaxChoiceLength bounds a submitted choice.
const MaxChoiceLength = 500

type CredentialChecker interface {
	HasSelectedKey() bool
}

type NarrativeGenerator interface {
	NextStep(ctx context.Context, req story.NarrativeRequest) (*state.GameState, error)
}

type SceneIllustrator interface {
	Illustrate(ctx context.Context, description, style string, size state.ImageSize) (*story.Illustration, error)
}

type LoreAnswerer interface {
	Ask(ctx context.Context, query string, gs *state.GameState) (string, error)
}

// Controller runs the adventure state machine over the sessions in a
// Manager. It is safe for concurrent use.
type Controller struct {
	sessions    *Manager
	keys        CredentialChecker
	generator   NarrativeGenerator
	illustrator SceneIllustrator
	lore        LoreAnswerer
	events      *events.Broadcaster
	logger      *slog.Logger
}

func NewController(
	sessions *Manager,
	keys CredentialChecker,
	generator NarrativeGenerator,
	illustrator SceneIllustrator,
	lore LoreAnswerer,
	broadcaster *events.Broadcaster,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		sessions:    sessions,
		keys:        keys,
		generator:   generator,
		illustrator: illustrator,
		lore:        lore,
		events:      broadcaster,
		logger:      logger,
	}
}

// Sessions exposes the underlying manager.
func (c *Controller) Sessions() *Manager {
	return c.sessions
}

// Create registers a new session without starting it.
func (c *Controller) Create() View {
	return c.sessions.Create().View()
}

func (c *Controller) Get(id uuid.UUID) (View, error) {
	s, err := c.sessions.Get(id)
	if err != nil {
		return View{}, err
	}
	return s.View(), nil
}

// Image returns the current illustration of a session.
func (c *Controller) Image(id uuid.UUID) (*story.Illustration, error) {
	s, err := c.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	img := s.Image()
	if img == nil {
		return nil, ErrNotStarted
	}
	return img, nil
}

// Start begins a new adventure on a not-started session. On success the
// session holds the opening scene and a single "Beginning" history entry. On
// failure the session is left exactly as it was. A session in progress or
// ended must be reset first.
func (c *Controller) Start(ctx context.Context, id uuid.UUID, theme string, size state.ImageSize) (View, error) {
	s, err := c.sessions.Get(id)
	if err != nil {
		return View{}, err
	}
	log := logger.WithSession(c.logger, id, OpStart)

	theme, err = state.NormalizeTheme(theme)
	if err != nil {
		return View{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if size == "" {
		size = state.DefaultImageSize
	}

	s.mu.Lock()
	err = s.startableLocked()
	s.mu.Unlock()
	if err != nil {
		return View{}, err
	}

	if !c.keys.HasSelectedKey() {
		log.Info("Start blocked, no API key selected")
		c.publish(func(ctx context.Context) error {
			return c.events.PublishCredentialRequired(ctx, id, OpStart)
		})
		return View{}, &ActionError{Op: OpStart, Message: StartFailureMessage, Err: services.ErrCredentialRequired}
	}

	s.mu.Lock()
	if err := s.startableLocked(); err != nil {
		s.mu.Unlock()
		return View{}, err
	}
	s.advancing = true
	epoch := s.epoch
	s.mu.Unlock()
	defer s.finishAdvance(epoch)

	start := time.Now()
	style := state.VisualStyleFor(theme)

	gs, err := c.generator.NextStep(ctx, story.NarrativeRequest{
		Theme:       theme,
		VisualStyle: style,
		History:     []state.HistoryEntry{},
		Inventory:   []string{},
		Quest:       state.SentinelAction,
	})
	if err != nil {
		return View{}, c.fail(log, id, OpStart, StartFailureMessage, err)
	}

	img, err := c.illustrator.Illustrate(ctx, gs.ImageDescription, style, size)
	if err != nil {
		return View{}, c.fail(log, id, OpStart, StartFailureMessage, err)
	}
	gs.ImageURL = img.DataURI()

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		log.Info("Discarding opening scene, session was reset")
		return View{}, ErrReset
	}
	s.theme = theme
	s.imageSize = size
	s.gameState = gs
	s.image = img
	s.history = []state.HistoryEntry{{Choice: state.BeginningChoice, Story: gs.StoryText}}
	s.status = statusFor(gs)
	s.advancing = false
	view := s.viewLocked()
	s.mu.Unlock()

	log.Info("Adventure started",
		"theme", theme,
		"image_size", size,
		"game_over", gs.IsGameOver,
		"duration", time.Since(start))

	c.publish(func(ctx context.Context) error {
		return c.events.PublishAdventureStarted(ctx, id, theme, view.GameState)
	})
	if gs.IsGameOver {
		c.publish(func(ctx context.Context) error {
			return c.events.PublishAdventureEnded(ctx, id, gs.StoryText)
		})
	}
	return view, nil
}

// Choose advances the adventure with the player's choice. Nothing is sent
// to the model when the session has no scene, the adventure is over, or
// another advance is in flight.
func (c *Controller) Choose(ctx context.Context, id uuid.UUID, choice string) (View, error) {
	s, err := c.sessions.Get(id)
	if err != nil {
		return View{}, err
	}
	log := logger.WithSession(c.logger, id, OpChoose)

	choice = strings.TrimSpace(choice)
	if choice == "" {
		return View{}, fmt.Errorf("%w: choice cannot be empty", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(choice) > MaxChoiceLength {
		return View{}, fmt.Errorf("%w: choice exceeds maximum length of %d characters", ErrInvalidRequest, MaxChoiceLength)
	}

	s.mu.Lock()
	switch {
	case s.gameState == nil:
		s.mu.Unlock()
		return View{}, ErrNotStarted
	case s.gameState.IsGameOver:
		s.mu.Unlock()
		return View{}, ErrGameOver
	case s.advancing:
		s.mu.Unlock()
		return View{}, ErrBusy
	}
	current := s.gameState
	theme := s.theme
	size := s.imageSize
	history := slices.Clone(s.history)
	s.mu.Unlock()

	if !c.keys.HasSelectedKey() {
		log.Info("Choice blocked, no API key selected")
		c.publish(func(ctx context.Context) error {
			return c.events.PublishCredentialRequired(ctx, id, OpChoose)
		})
		return View{}, &ActionError{Op: OpChoose, Message: ChoiceFailureMessage, Err: services.ErrCredentialRequired}
	}

	s.mu.Lock()
	if s.advancing {
		s.mu.Unlock()
		return View{}, ErrBusy
	}
	if s.gameState != current {
		s.mu.Unlock()
		return View{}, ErrReset
	}
	s.advancing = true
	epoch := s.epoch
	s.mu.Unlock()
	defer s.finishAdvance(epoch)

	start := time.Now()
	newHistory := append(history, state.HistoryEntry{Choice: choice, Story: current.StoryText})

	gs, err := c.generator.NextStep(ctx, story.NarrativeRequest{
		Theme:       theme,
		VisualStyle: current.VisualStyle,
		History:     newHistory,
		Inventory:   slices.Clone(current.Inventory),
		Quest:       current.CurrentQuest,
	})
	if err != nil {
		return View{}, c.fail(log, id, OpChoose, ChoiceFailureMessage, err)
	}

	img, err := c.illustrator.Illustrate(ctx, gs.ImageDescription, current.VisualStyle, size)
	if err != nil {
		return View{}, c.fail(log, id, OpChoose, ChoiceFailureMessage, err)
	}
	gs.ImageURL = img.DataURI()

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		log.Info("Discarding scene, session was reset")
		return View{}, ErrReset
	}
	s.gameState = gs
	s.image = img
	s.history = newHistory
	s.status = statusFor(gs)
	s.advancing = false
	view := s.viewLocked()
	s.mu.Unlock()

	log.Info("Choice accepted",
		"history_length", len(newHistory),
		"game_over", gs.IsGameOver,
		"duration", time.Since(start))

	c.publish(func(ctx context.Context) error {
		return c.events.PublishStateUpdated(ctx, id, choice, view.GameState, len(newHistory))
	})
	if gs.IsGameOver {
		c.publish(func(ctx context.Context) error {
			return c.events.PublishAdventureEnded(ctx, id, gs.StoryText)
		})
	}
	return view, nil
}

// Ask puts a lore question to the assistant. It may run while an advance is
// in flight and reads the scene as it was when the question arrived. A
// failed call still succeeds from the caller's view: the fallback reply is
// appended in place of an answer.
func (c *Controller) Ask(ctx context.Context, id uuid.UUID, query string) (chat.ChatResponse, error) {
	s, err := c.sessions.Get(id)
	if err != nil {
		return chat.ChatResponse{}, err
	}
	log := logger.WithSession(c.logger, id, OpAsk)

	req := chat.ChatRequest{Message: query}
	if err := req.Validate(); err != nil {
		return chat.ChatResponse{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	s.mu.Lock()
	if s.gameState == nil {
		s.mu.Unlock()
		return chat.ChatResponse{}, ErrNotStarted
	}
	if s.asking {
		s.mu.Unlock()
		return chat.ChatResponse{}, ErrBusy
	}
	s.asking = true
	epoch := s.epoch
	snapshot := s.gameState.Clone()
	userMsg := chat.NewUserMessage(req.Message)
	s.chat = append(s.chat, userMsg)
	s.mu.Unlock()
	defer s.finishAsk(epoch)

	c.publish(func(ctx context.Context) error {
		return c.events.PublishChatMessage(ctx, id, userMsg)
	})

	reply, err := c.lore.Ask(ctx, req.Message, snapshot)
	fallback := err != nil
	if fallback {
		log.Warn("Lore assistant failed, sending fallback", "error", err)
		c.publish(func(ctx context.Context) error {
			return c.events.PublishRequestFailed(ctx, id, OpAsk, reply)
		})
		if services.IsCredentialError(err) {
			c.publish(func(ctx context.Context) error {
				return c.events.PublishCredentialRequired(ctx, id, OpAsk)
			})
		}
	}

	agentMsg := chat.NewAgentMessage(reply)
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return chat.ChatResponse{}, ErrReset
	}
	s.chat = append(s.chat, agentMsg)
	s.asking = false
	transcript := slices.Clone(s.chat)
	s.mu.Unlock()

	c.publish(func(ctx context.Context) error {
		return c.events.PublishChatMessage(ctx, id, agentMsg)
	})
	return chat.ChatResponse{Reply: reply, ChatHistory: transcript, Fallback: fallback}, nil
}

// Reset clears the scene, history and chat and returns the session to
// NotStarted. Requests still in flight finish but their results are dropped.
func (c *Controller) Reset(ctx context.Context, id uuid.UUID) (View, error) {
	s, err := c.sessions.Get(id)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	s.epoch++
	s.status = StatusNotStarted
	s.gameState = nil
	s.image = nil
	s.history = nil
	s.chat = nil
	s.advancing = false
	s.asking = false
	s.lastActive = time.Now()
	view := s.viewLocked()
	s.mu.Unlock()

	c.logger.Info("Adventure reset", "session_id", id.String())
	c.publish(func(ctx context.Context) error {
		return c.events.PublishAdventureReset(ctx, id)
	})
	return view, nil
}

// fail logs a failed advance, publishes it and wraps it for the caller.
// Credential failures also ask the player to select a key again.
func (c *Controller) fail(log *slog.Logger, id uuid.UUID, op, message string, err error) error {
	if services.IsCredentialError(err) {
		log.Warn("Request failed, API key needs to be selected", "error", err)
		c.publish(func(ctx context.Context) error {
			return c.events.PublishCredentialRequired(ctx, id, op)
		})
		if !errors.Is(err, services.ErrCredentialRequired) {
			err = fmt.Errorf("%w: %w", services.ErrCredentialRequired, err)
		}
	} else {
		log.Error("Request failed", "error", err)
	}

	c.publish(func(ctx context.Context) error {
		return c.events.PublishRequestFailed(ctx, id, op, message)
	})
	return &ActionError{Op: op, Message: message, Err: err}
}

// publish delivers an event without tying it to the request context.
// Delivery failures are logged by the broadcaster and otherwise ignored.
func (c *Controller) publish(fn func(ctx context.Context) error) {
	if c.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = fn(ctx)
}

func statusFor(gs *state.GameState) Status {
	if gs.IsGameOver {
		return StatusEnded
	}
	return StatusInProgress
}
