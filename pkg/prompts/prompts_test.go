package prompts

import (
	"strings"
	"testing"

	"github.com/jwebster45206/chronicle/pkg/state"
)

func TestBuildImagePrompt(t *testing.T) {
	got := BuildImagePrompt("Watercolor", "A lighthouse at dusk")
	want := "Watercolor. Scene: A lighthouse at dusk"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestBuildLorePreamble(t *testing.T) {
	gs := &state.GameState{
		StoryText:    strings.Repeat("é", 250),
		Inventory:    []string{"Amulet", "Map"},
		CurrentQuest: "Find the lost heir",
	}

	preamble := BuildLorePreamble(gs)

	if !strings.Contains(preamble, "Quest: Find the lost heir\n") {
		t.Errorf("Expected quest in preamble, got %q", preamble)
	}
	if !strings.Contains(preamble, "Inventory: Amulet, Map\n") {
		t.Errorf("Expected inventory in preamble, got %q", preamble)
	}
	beat := "Last Story Beat: " + strings.Repeat("é", LoreStoryBeatLimit) + "...\n"
	if !strings.Contains(preamble, beat) {
		t.Errorf("Expected story beat truncated to %d characters", LoreStoryBeatLimit)
	}
	if !strings.Contains(preamble, "keep the immersion") {
		t.Error("Expected immersion instruction")
	}
}

func TestBuildLorePreamble_ShortStoryAndNilState(t *testing.T) {
	preamble := BuildLorePreamble(&state.GameState{StoryText: "Short."})
	if !strings.Contains(preamble, "Last Story Beat: Short....") {
		t.Errorf("Expected untruncated story, got %q", preamble)
	}

	if preamble := BuildLorePreamble(nil); !strings.Contains(preamble, "Quest: \n") {
		t.Errorf("Expected empty quest for nil state, got %q", preamble)
	}
}
