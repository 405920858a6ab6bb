package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validStep = `{
  "storyText": "Rain hisses on the neon.",
  "choices": ["Open the vault", "Walk away"],
  "inventory": ["Datachip", "Datachip"],
  "currentQuest": "Find the broker",
  "imageDescription": "A rain-soaked alley lit by neon",
  "isGameOver": false
}`

func TestParseStep_Valid(t *testing.T) {
	gs, err := ParseStep(validStep, "noir style")
	require.NoError(t, err)

	assert.Equal(t, "Rain hisses on the neon.", gs.StoryText)
	assert.Equal(t, []string{"Open the vault", "Walk away"}, gs.Choices)
	assert.Equal(t, []string{"Datachip", "Datachip"}, gs.Inventory, "duplicates are preserved")
	assert.Equal(t, "Find the broker", gs.CurrentQuest)
	assert.Equal(t, "A rain-soaked alley lit by neon", gs.ImageDescription)
	assert.Equal(t, "noir style", gs.VisualStyle)
	assert.False(t, gs.IsGameOver)
	assert.Empty(t, gs.ImageURL)
}

func TestParseStep_CodeFence(t *testing.T) {
	gs, err := ParseStep("```json\n"+validStep+"\n```", "style")
	require.NoError(t, err)
	assert.Equal(t, "Find the broker", gs.CurrentQuest)
}

func TestParseStep_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "the story continues"},
		{"array", `["a"]`},
		{"null", `null`},
		{"missing storyText", `{"choices":[],"inventory":[],"currentQuest":"q","imageDescription":"d","isGameOver":false}`},
		{"missing choices", `{"storyText":"s","inventory":[],"currentQuest":"q","imageDescription":"d","isGameOver":false}`},
		{"missing inventory", `{"storyText":"s","choices":[],"currentQuest":"q","imageDescription":"d","isGameOver":false}`},
		{"missing currentQuest", `{"storyText":"s","choices":[],"inventory":[],"imageDescription":"d","isGameOver":false}`},
		{"missing imageDescription", `{"storyText":"s","choices":[],"inventory":[],"currentQuest":"q","isGameOver":false}`},
		{"missing isGameOver", `{"storyText":"s","choices":[],"inventory":[],"currentQuest":"q","imageDescription":"d"}`},
		{"null choices", `{"storyText":"s","choices":null,"inventory":[],"currentQuest":"q","imageDescription":"d","isGameOver":false}`},
		{"choices not array", `{"storyText":"s","choices":"go north","inventory":[],"currentQuest":"q","imageDescription":"d","isGameOver":false}`},
		{"inventory of numbers", `{"storyText":"s","choices":[],"inventory":[1,2],"currentQuest":"q","imageDescription":"d","isGameOver":false}`},
		{"isGameOver as string", `{"storyText":"s","choices":[],"inventory":[],"currentQuest":"q","imageDescription":"d","isGameOver":"false"}`},
		{"null choice", `{"storyText":"s","choices":[null],"inventory":[],"currentQuest":"q","imageDescription":"d","isGameOver":false}`},
		{"blank choice", `{"storyText":"s","choices":["Go left","  "],"inventory":[],"currentQuest":"q","imageDescription":"d","isGameOver":false}`},
		{"empty inventory item", `{"storyText":"s","choices":["Go left"],"inventory":[""],"currentQuest":"q","imageDescription":"d","isGameOver":false}`},
		{"null inventory item", `{"storyText":"s","choices":["Go left"],"inventory":["Rope",null],"currentQuest":"q","imageDescription":"d","isGameOver":false}`},
		{"storyText as number", `{"storyText":4,"choices":[],"inventory":[],"currentQuest":"q","imageDescription":"d","isGameOver":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs, err := ParseStep(tt.raw, "style")
			if gs != nil {
				t.Errorf("expected no state, got %+v", gs)
			}
			if !errors.Is(err, ErrInvalidStep) {
				t.Errorf("expected ErrInvalidStep, got %v", err)
			}
		})
	}
}

func TestParseStep_GameOverWithNoChoices(t *testing.T) {
	gs, err := ParseStep(`{"storyText":"The end.","choices":[],"inventory":[],"currentQuest":"","imageDescription":"dawn","isGameOver":true}`, "style")
	require.NoError(t, err)
	assert.True(t, gs.IsGameOver)
	assert.Empty(t, gs.AvailableChoices())
}
