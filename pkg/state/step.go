package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStep is returned when a generated narrative step does not
// conform to the required schema. No partial state is ever produced.
var ErrInvalidStep = errors.New("narrative step does not match schema")

// Field names of the structured narrative response.
const (
	FieldStoryText        = "storyText"
	FieldChoices          = "choices"
	FieldInventory        = "inventory"
	FieldCurrentQuest     = "currentQuest"
	FieldImageDescription = "imageDescription"
	FieldIsGameOver       = "isGameOver"
)

// RequiredStepFields lists every field a narrative step must carry.
var RequiredStepFields = []string{
	FieldStoryText,
	FieldChoices,
	FieldInventory,
	FieldCurrentQuest,
	FieldImageDescription,
	FieldIsGameOver,
}

// ParseStep strictly decodes a structured narrative response into a new
// GameState carrying visualStyle. Missing, null or mistyped fields are rejected,
// as are null or blank entries in choices and inventory.
func ParseStep(raw string, visualStyle string) (*GameState, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidStep)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrInvalidStep)
	}

	for _, name := range RequiredStepFields {
		v, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing required field %q", ErrInvalidStep, name)
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, fmt.Errorf("%w: field %q is null", ErrInvalidStep, name)
		}
	}

	gs := &GameState{VisualStyle: visualStyle}
	targets := map[string]any{
		FieldStoryText:        &gs.StoryText,
		FieldChoices:          &gs.Choices,
		FieldInventory:        &gs.Inventory,
		FieldCurrentQuest:     &gs.CurrentQuest,
		FieldImageDescription: &gs.ImageDescription,
		FieldIsGameOver:       &gs.IsGameOver,
	}
	for _, name := range RequiredStepFields {
		if err := json.Unmarshal(fields[name], targets[name]); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidStep, name, err)
		}
	}

	// A null element decodes to "", so one check covers both.
	for name, list := range map[string][]string{FieldChoices: gs.Choices, FieldInventory: gs.Inventory} {
		for i, v := range list {
			if strings.TrimSpace(v) == "" {
				return nil, fmt.Errorf("%w: field %q has a null or empty element at index %d", ErrInvalidStep, name, i)
			}
		}
	}

	return gs, nil
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models emit even when asked for bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if last := strings.TrimSpace(lines[len(lines)-1]); strings.HasPrefix(last, "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
