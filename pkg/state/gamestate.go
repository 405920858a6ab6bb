package state

import "slices"

// SentinelAction bootstraps the first narrative call of a session,
// standing in for a player choice that does not exist yet.
const SentinelAction = "Embark on a new journey."

// BeginningChoice is the choice recorded in history for the opening scene.
const BeginningChoice = "Beginning"

// GameState is the complete narrative/inventory/quest/image snapshot
// for the current scene. It is replaced wholesale on every accepted choice.
type GameState struct {
	StoryText        string   `json:"storyText"`
	Choices          []string `json:"choices"`
	Inventory        []string `json:"inventory"` // ordered, duplicates permitted
	CurrentQuest     string   `json:"currentQuest"`
	ImageDescription string   `json:"imageDescription"`
	ImageURL         string   `json:"imageUrl,omitempty"`
	VisualStyle      string   `json:"visualStyle"`
	IsGameOver       bool     `json:"isGameOver"`
}

// HistoryEntry records what the player picked and the narrative that preceded it.
type HistoryEntry struct {
	Choice string `json:"choice"`
	Story  string `json:"story"`
}

// Clone returns a deep copy so callers can hold a snapshot while
// the session swaps in a new state.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	c := *gs
	c.Choices = slices.Clone(gs.Choices)
	c.Inventory = slices.Clone(gs.Inventory)
	return &c
}

// AvailableChoices returns the choices the player may be offered.
// A finished game offers none.
func (gs *GameState) AvailableChoices() []string {
	if gs == nil || gs.IsGameOver {
		return nil
	}
	return gs.Choices
}
