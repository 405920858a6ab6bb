package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGameState_Clone(t *testing.T) {
	gs := &GameState{
		StoryText: "A door creaks.",
		Choices:   []string{"Enter", "Leave"},
		Inventory: []string{"Lantern"},
	}

	c := gs.Clone()
	c.Choices[0] = "Knock"
	c.Inventory = append(c.Inventory, "Key")

	assert.Equal(t, "Enter", gs.Choices[0], "clone must not share choices")
	assert.Equal(t, []string{"Lantern"}, gs.Inventory, "clone must not share inventory")

	var nilState *GameState
	assert.Nil(t, nilState.Clone())
}

func TestGameState_AvailableChoices(t *testing.T) {
	gs := &GameState{Choices: []string{"Open the vault"}}
	assert.Equal(t, []string{"Open the vault"}, gs.AvailableChoices())

	gs.IsGameOver = true
	assert.Nil(t, gs.AvailableChoices(), "a finished game offers no choices")

	var nilState *GameState
	assert.Nil(t, nilState.AvailableChoices())
}

func TestParseImageSize(t *testing.T) {
	tests := []struct {
		in      string
		want    ImageSize
		wantErr bool
	}{
		{"", ImageSizeLow, false},
		{"low", ImageSizeLow, false},
		{"1K", ImageSizeLow, false},
		{"Medium", ImageSizeMedium, false},
		{"2k", ImageSizeMedium, false},
		{" high ", ImageSizeHigh, false},
		{"4K", ImageSizeHigh, false},
		{"8K", "", true},
		{"ultra", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseImageSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "medium", ImageSizeMedium.Tier())
}

func TestNormalizeTheme(t *testing.T) {
	theme, err := NormalizeTheme("  ")
	assert.NoError(t, err)
	assert.Equal(t, DefaultTheme, theme)

	theme, err = NormalizeTheme(" Gritty Cyberpunk ")
	assert.NoError(t, err)
	assert.Equal(t, ThemeCyberpunk, theme)

	_, err = NormalizeTheme(string(make([]byte, 200)))
	assert.Error(t, err)

	assert.Contains(t, VisualStyleFor(ThemeHorror), "Gothic Horror theme")
}
