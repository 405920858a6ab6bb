package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/chronicle/pkg/state"
)

func TestBuilder_FirstStep(t *testing.T) {
	prompt, err := New().
		WithTheme(state.ThemeCyberpunk).
		WithVisualStyle(state.VisualStyleFor(state.ThemeCyberpunk)).
		WithQuest(state.SentinelAction).
		Build()
	require.NoError(t, err)

	assert.Contains(t, prompt, "Theme: Gritty Cyberpunk\n")
	assert.Contains(t, prompt, "Visual Style for consistency: High-quality cinematic concept art, Gritty Cyberpunk theme")
	assert.Contains(t, prompt, "Current Inventory: \n")
	assert.Contains(t, prompt, "Current Quest: Embark on a new journey.\n")
	assert.Contains(t, prompt, "Player Action: Embark on a new journey.")
	assert.True(t, strings.HasSuffix(prompt, NarrativeInstructions))
}

func TestBuilder_WithHistory(t *testing.T) {
	history := []state.HistoryEntry{
		{Choice: state.BeginningChoice, Story: "You wake in a ditch."},
		{Choice: "Climb out", Story: "You wake in a ditch."},
	}

	prompt, err := New().
		WithTheme(state.ThemeFantasy).
		WithVisualStyle("ink wash").
		WithInventory([]string{"Rope", "Torch", "Rope"}).
		WithQuest("Reach the keep").
		WithHistory(history).
		Build()
	require.NoError(t, err)

	assert.Contains(t, prompt, "Current Inventory: Rope, Torch, Rope\n")
	assert.Contains(t, prompt, "Action: Beginning\nStory: You wake in a ditch.\n\nAction: Climb out\nStory: You wake in a ditch.")
	assert.NotContains(t, prompt, "Player Action:")
}

func TestBuilder_HistoryLimit(t *testing.T) {
	history := []state.HistoryEntry{
		{Choice: "one", Story: "s1"},
		{Choice: "two", Story: "s2"},
		{Choice: "three", Story: "s3"},
	}

	prompt, err := New().
		WithTheme("t").
		WithVisualStyle("v").
		WithHistory(history).
		WithHistoryLimit(2).
		Build()
	require.NoError(t, err)

	assert.NotContains(t, prompt, "Action: one")
	assert.Contains(t, prompt, "Action: two")
	assert.Contains(t, prompt, "Action: three")
}

func TestBuilder_Validation(t *testing.T) {
	_, err := New().WithVisualStyle("v").Build()
	assert.Error(t, err, "theme is required")

	_, err = New().WithTheme("t").Build()
	assert.Error(t, err, "visual style is required")
}

func TestFormatHistory_Empty(t *testing.T) {
	assert.Equal(t, "", FormatHistory(nil))
}
