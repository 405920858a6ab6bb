package story

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/chronicle/internal/services"
	"github.com/jwebster45206/chronicle/pkg/prompts"
	"github.com/jwebster45206/chronicle/pkg/state"
	"github.com/jwebster45206/chronicle/pkg/textfilter"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const style = "High-quality cinematic concept art, Gritty Cyberpunk theme, consistent illustrative style, detailed environments"

func TestGenerator_FirstStep(t *testing.T) {
	mock := services.NewMockGenAI()
	gen := NewGenerator(mock, "narrative", testLogger())

	gs, err := gen.NextStep(context.Background(), NarrativeRequest{
		Theme:       state.ThemeCyberpunk,
		VisualStyle: style,
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock story", gs.StoryText)
	assert.Equal(t, []string{"Go left", "Go right"}, gs.Choices)
	assert.Equal(t, style, gs.VisualStyle)

	calls, _, _ := mock.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "narrative", calls[0].Model)
	assert.Same(t, StepSchema, calls[0].Schema)
	assert.Contains(t, calls[0].Prompt, "Theme: Gritty Cyberpunk")
	assert.Contains(t, calls[0].Prompt, "Current Quest: "+state.SentinelAction)
	assert.Contains(t, calls[0].Prompt, "Player Action: "+state.SentinelAction)
}

func TestGenerator_CarriesHistory(t *testing.T) {
	mock := services.NewMockGenAI()
	gen := NewGenerator(mock, "narrative", testLogger())

	_, err := gen.NextStep(context.Background(), NarrativeRequest{
		Theme:       state.ThemeHorror,
		VisualStyle: style,
		History: []state.HistoryEntry{
			{Choice: state.BeginningChoice, Story: "Fog rolls in."},
			{Choice: "Light a candle", Story: "Shadows retreat."},
		},
		Inventory: []string{"Candle", "Candle"},
		Quest:     "Find the crypt",
	})
	require.NoError(t, err)

	calls, _, _ := mock.GetCalls()
	require.Len(t, calls, 1)
	p := calls[0].Prompt
	assert.Contains(t, p, "Current Inventory: Candle, Candle")
	assert.Contains(t, p, "Current Quest: Find the crypt")
	assert.Contains(t, p, "Action: Light a candle\nStory: Shadows retreat.")
	assert.NotContains(t, p, "Player Action:")
}

func TestGenerator_SchemaRequiresEveryField(t *testing.T) {
	assert.ElementsMatch(t, state.RequiredStepFields, StepSchema.Required)
	for _, f := range state.RequiredStepFields {
		assert.Contains(t, StepSchema.Properties, f)
	}
}

func TestGenerator_RejectsMissingField(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetStructuredResponse(`{"storyText":"x","choices":[],"inventory":[],"currentQuest":"q","isGameOver":false}`)
	gen := NewGenerator(mock, "narrative", testLogger())

	gs, err := gen.NextStep(context.Background(), NarrativeRequest{Theme: state.ThemeSpace, VisualStyle: style})
	assert.Nil(t, gs)
	assert.ErrorIs(t, err, state.ErrInvalidStep)
}

func TestGenerator_PropagatesAPIError(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetStructuredError(services.ErrCredentialRequired)
	gen := NewGenerator(mock, "narrative", testLogger())

	_, err := gen.NextStep(context.Background(), NarrativeRequest{Theme: state.ThemeSpace, VisualStyle: style})
	assert.ErrorIs(t, err, services.ErrCredentialRequired)
}

func TestGenerator_ContentFilter(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetStructuredResponse(`{"storyText":"Damn, the gate holds.","choices":["Kick the damn gate"],"inventory":["Crowbar"],"currentQuest":"Get through this hell","imageDescription":"a gate","isGameOver":false}`)
	gen := NewGenerator(mock, "narrative", testLogger(), WithContentFilter(textfilter.New()))

	gs, err := gen.NextStep(context.Background(), NarrativeRequest{Theme: state.ThemeFantasy, VisualStyle: style})
	require.NoError(t, err)
	assert.Equal(t, "Dang, the gate holds.", gs.StoryText)
	assert.Equal(t, []string{"Kick the dang gate"}, gs.Choices)
	assert.Equal(t, "Get through this heck", gs.CurrentQuest)
}

func TestGenerator_ContentFilterOnlyLogsRewrites(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	mock := services.NewMockGenAI()
	gen := NewGenerator(mock, "narrative", log, WithContentFilter(textfilter.New()))

	gs, err := gen.NextStep(context.Background(), NarrativeRequest{Theme: state.ThemeFantasy, VisualStyle: style})
	require.NoError(t, err)
	assert.Equal(t, "Mock story", gs.StoryText)
	assert.NotContains(t, buf.String(), "Content filter rewrote")

	mock.SetStructuredResponse(`{"storyText":"The gate holds.","choices":["Go left","Curse the crap lock"],"inventory":[],"currentQuest":"Escape","imageDescription":"a gate","isGameOver":false}`)
	gs, err = gen.NextStep(context.Background(), NarrativeRequest{Theme: state.ThemeFantasy, VisualStyle: style})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go left", "Curse the crud lock"}, gs.Choices)
	assert.Contains(t, buf.String(), "Content filter rewrote")
}

func TestGenerator_HistoryLimit(t *testing.T) {
	mock := services.NewMockGenAI()
	gen := NewGenerator(mock, "narrative", testLogger(), WithHistoryLimit(2))

	_, err := gen.NextStep(context.Background(), NarrativeRequest{
		Theme:       state.ThemeHorror,
		VisualStyle: style,
		History: []state.HistoryEntry{
			{Choice: state.BeginningChoice, Story: "Fog rolls in."},
			{Choice: "Light a candle", Story: "Shadows retreat."},
			{Choice: "Open the crypt", Story: "Stone grinds on stone."},
		},
		Quest: "Find the crypt",
	})
	require.NoError(t, err)

	calls, _, _ := mock.GetCalls()
	require.Len(t, calls, 1)
	p := calls[0].Prompt
	assert.NotContains(t, p, "Fog rolls in.")
	assert.Contains(t, p, "Action: Light a candle\nStory: Shadows retreat.")
	assert.Contains(t, p, "Action: Open the crypt\nStory: Stone grinds on stone.")
	assert.NotContains(t, p, "Player Action:")
}

func TestIllustrator_Illustrate(t *testing.T) {
	mock := services.NewMockGenAI()
	il := NewIllustrator(mock, "image", testLogger())

	img, err := il.Illustrate(context.Background(), "a neon alley", style, state.ImageSizeLow)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, services.MockImageBytes, img.Data)
	assert.True(t, strings.HasPrefix(img.DataURI(), "data:image/png;base64,"))

	_, images, _ := mock.GetCalls()
	require.Len(t, images, 1)
	assert.Equal(t, style+". Scene: a neon alley", images[0].Prompt)
	assert.Equal(t, "16:9", images[0].AspectRatio)
	assert.Equal(t, "1K", images[0].ImageSize)
}

func TestIllustrator_DefaultSizeAndFirstImageWins(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetImageParts([]services.ImagePart{
		{MIMEType: "image/jpeg", Data: nil},
		{MIMEType: "", Data: []byte{1, 2, 3}},
		{MIMEType: "image/webp", Data: []byte{4}},
	})
	il := NewIllustrator(mock, "image", testLogger())

	img, err := il.Illustrate(context.Background(), "a ship", style, "")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, img.Data)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, "data:image/png;base64,AQID", img.DataURI())

	_, images, _ := mock.GetCalls()
	assert.Equal(t, string(state.DefaultImageSize), images[0].ImageSize)
}

func TestIllustrator_NoImageData(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetImageParts(nil)
	il := NewIllustrator(mock, "image", testLogger())

	img, err := il.Illustrate(context.Background(), "nothing", style, state.ImageSizeHigh)
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrNoImageData)
	assert.Equal(t, "no image data returned from image model", ErrNoImageData.Error())
}

func TestLoreAssistant_Ask(t *testing.T) {
	mock := services.NewMockGenAI()
	lore := NewLoreAssistant(mock, "lore", testLogger())
	gs := &state.GameState{
		StoryText:    strings.Repeat("a", 300),
		Inventory:    []string{"Lantern", "Map"},
		CurrentQuest: "Reach the lighthouse",
	}

	reply, err := lore.Ask(context.Background(), "What is the map for?", gs)
	require.NoError(t, err)
	assert.Equal(t, "Mock lore", reply)

	_, _, conv := mock.GetCalls()
	require.Len(t, conv, 1)
	assert.Equal(t, "lore", conv[0].Model)
	assert.Equal(t, "What is the map for?", conv[0].Message)
	assert.Contains(t, conv[0].SystemPreamble, "Quest: Reach the lighthouse")
	assert.Contains(t, conv[0].SystemPreamble, "Inventory: Lantern, Map")
	assert.Contains(t, conv[0].SystemPreamble, strings.Repeat("a", 200)+"...")
	assert.NotContains(t, conv[0].SystemPreamble, strings.Repeat("a", 201))
}

func TestLoreAssistant_Fallback(t *testing.T) {
	mock := services.NewMockGenAI()
	boom := errors.New("ether disrupted")
	mock.SetConverseError(boom)
	lore := NewLoreAssistant(mock, "lore", testLogger())

	reply, err := lore.Ask(context.Background(), "Hello?", nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, prompts.LoreFallbackMessage, reply)
}
