package story

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/jwebster45206/chronicle/internal/services"
	"github.com/jwebster45206/chronicle/pkg/prompts"
	"github.com/jwebster45206/chronicle/pkg/state"
	"github.com/jwebster45206/chronicle/pkg/textfilter"
)

// StepSchema constrains the narrative model's output.
var StepSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		state.FieldStoryText:        {Type: genai.TypeString},
		state.FieldChoices:          {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		state.FieldInventory:        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		state.FieldCurrentQuest:     {Type: genai.TypeString},
		state.FieldImageDescription: {Type: genai.TypeString},
		state.FieldIsGameOver:       {Type: genai.TypeBoolean},
	},
	Required: state.RequiredStepFields,
}

// NarrativeRequest is everything the generator needs for one beat.
type NarrativeRequest struct {
	Theme       string
	VisualStyle string
	History     []state.HistoryEntry
	Inventory   []string
	Quest       string
}

// Generator produces the next narrative step. It holds no session state.
type Generator struct {
	ai     services.GenAI
	model  string
	filter *textfilter.Filter
	logger *slog.Logger

	historyLimit int
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithContentFilter scrubs generated story text, choices and quest.
func WithContentFilter(f *textfilter.Filter) GeneratorOption {
	return func(g *Generator) {
		g.filter = f
	}
}

// WithHistoryLimit sends only the most recent limit history entries to the
// model. Zero sends them all.
func WithHistoryLimit(limit int) GeneratorOption {
	return func(g *Generator) {
		g.historyLimit = limit
	}
}

func NewGenerator(ai services.GenAI, model string, logger *slog.Logger, opts ...GeneratorOption) *Generator {
	g := &Generator{
		ai:     ai,
		model:  model,
		logger: logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NextStep asks the model for the next beat and strictly validates it.
func (g *Generator) NextStep(ctx context.Context, req NarrativeRequest) (*state.GameState, error) {
	quest := req.Quest
	if len(req.History) == 0 && quest == "" {
		quest = state.SentinelAction
	}

	prompt, err := prompts.New().
		WithTheme(req.Theme).
		WithVisualStyle(req.VisualStyle).
		WithInventory(req.Inventory).
		WithQuest(quest).
		WithHistory(req.History).
		WithHistoryLimit(g.historyLimit).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build narrative prompt: %w", err)
	}

	raw, err := g.ai.GenerateStructured(ctx, g.model, prompt, StepSchema)
	if err != nil {
		return nil, fmt.Errorf("narrative generation failed: %w", err)
	}

	gs, err := state.ParseStep(raw, req.VisualStyle)
	if err != nil {
		g.logger.Warn("Narrative step rejected", "error", err, "response_length", len(raw))
		return nil, err
	}

	if g.filter != nil && g.needsFiltering(gs) {
		gs.StoryText = g.filter.FilterText(gs.StoryText)
		gs.Choices = g.filter.FilterAll(gs.Choices)
		gs.CurrentQuest = g.filter.FilterText(gs.CurrentQuest)
		g.logger.Info("Content filter rewrote narrative step")
	}

	g.logger.Debug("Narrative step generated",
		"choices", len(gs.Choices),
		"inventory", len(gs.Inventory),
		"game_over", gs.IsGameOver)
	return gs, nil
}

func (g *Generator) needsFiltering(gs *state.GameState) bool {
	if g.filter.ContainsProfanity(gs.StoryText) || g.filter.ContainsProfanity(gs.CurrentQuest) {
		return true
	}
	for _, c := range gs.Choices {
		if g.filter.ContainsProfanity(c) {
			return true
		}
	}
	return false
}
