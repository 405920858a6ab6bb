package story

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/chronicle/internal/services"
	"github.com/jwebster45206/chronicle/pkg/prompts"
	"github.com/jwebster45206/chronicle/pkg/state"
)

// LoreAssistant answers free-form questions about the current adventure.
type LoreAssistant struct {
	ai     services.GenAI
	model  string
	logger *slog.Logger
}

func NewLoreAssistant(ai services.GenAI, model string, logger *slog.Logger) *LoreAssistant {
	return &LoreAssistant{
		ai:     ai,
		model:  model,
		logger: logger,
	}
}

// Ask sends query alone, under a preamble built from gs. On failure the
// fallback text is returned alongside the error and should be shown as-is.
func (l *LoreAssistant) Ask(ctx context.Context, query string, gs *state.GameState) (string, error) {
	reply, err := l.ai.Converse(ctx, l.model, prompts.BuildLorePreamble(gs), query)
	if err != nil {
		return prompts.LoreFallbackMessage, fmt.Errorf("lore request failed: %w", err)
	}
	return reply, nil
}
