package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/chronicle/pkg/state"
)

// Builder assembles the narrative prompt using a fluent interface.
// It keeps prompt formatting out of the session controller.
type Builder struct {
	theme        string
	visualStyle  string
	inventory    []string
	quest        string
	history      []state.HistoryEntry
	historyLimit int
}

// New creates a new prompt builder. History is unbounded by default.
func New() *Builder {
	return &Builder{}
}

func (b *Builder) WithTheme(theme string) *Builder {
	b.theme = theme
	return b
}

func (b *Builder) WithVisualStyle(style string) *Builder {
	b.visualStyle = style
	return b
}

func (b *Builder) WithInventory(inventory []string) *Builder {
	b.inventory = inventory
	return b
}

func (b *Builder) WithQuest(quest string) *Builder {
	b.quest = quest
	return b
}

// WithHistory sets the chronological history, oldest first.
func (b *Builder) WithHistory(history []state.HistoryEntry) *Builder {
	b.history = history
	return b
}

// WithHistoryLimit keeps only the most recent limit entries. Zero means all.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build returns the composed narrative prompt.
func (b *Builder) Build() (string, error) {
	if strings.TrimSpace(b.theme) == "" {
		return "", fmt.Errorf("theme is required")
	}
	if strings.TrimSpace(b.visualStyle) == "" {
		return "", fmt.Errorf("visual style is required")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Theme: %s\n", b.theme)
	fmt.Fprintf(&sb, "Visual Style for consistency: %s\n", b.visualStyle)
	fmt.Fprintf(&sb, "Current Inventory: %s\n", strings.Join(b.inventory, ", "))
	fmt.Fprintf(&sb, "Current Quest: %s\n\n", b.quest)

	sb.WriteString("Recent History:\n")
	sb.WriteString(FormatHistory(b.windowedHistory()))
	sb.WriteString("\n\n")

	// Without history the model still needs an action to react to.
	if len(b.history) == 0 {
		fmt.Fprintf(&sb, "Player Action: %s\n\n", state.SentinelAction)
	}

	sb.WriteString(NarrativeInstructions)
	return sb.String(), nil
}

func (b *Builder) windowedHistory() []state.HistoryEntry {
	if b.historyLimit <= 0 || len(b.history) <= b.historyLimit {
		return b.history
	}
	return b.history[len(b.history)-b.historyLimit:]
}

// FormatHistory renders history entries as Action/Story blocks separated
// by blank lines.
func FormatHistory(history []state.HistoryEntry) string {
	blocks := make([]string, 0, len(history))
	for _, h := range history {
		blocks = append(blocks, fmt.Sprintf("Action: %s\nStory: %s", h.Choice, h.Story))
	}
	return strings.Join(blocks, "\n\n")
}

// BuildImagePrompt concatenates the visual style and scene description.
func BuildImagePrompt(style, description string) string {
	return fmt.Sprintf(ImagePromptTemplate, style, description)
}

// BuildLorePreamble embeds the current game context for the lore assistant.
// Only the first LoreStoryBeatLimit characters of the story are included.
func BuildLorePreamble(gs *state.GameState) string {
	if gs == nil {
		gs = &state.GameState{}
	}
	return fmt.Sprintf(LorePreambleTemplate,
		gs.CurrentQuest,
		strings.Join(gs.Inventory, ", "),
		truncateRunes(gs.StoryText, LoreStoryBeatLimit))
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
