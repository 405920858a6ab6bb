package services

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// MockGenAI is a mock implementation of GenAI for testing
type MockGenAI struct {
	GenerateStructuredFunc func(ctx context.Context, model, prompt string, schema *genai.Schema) (string, error)
	GenerateImageFunc      func(ctx context.Context, model, prompt, aspectRatio, imageSize string) ([]ImagePart, error)
	ConverseFunc           func(ctx context.Context, model, systemPreamble, message string) (string, error)

	// Track calls for testing
	StructuredCalls []StructuredCall
	ImageCalls      []ImageCall
	ConverseCalls   []ConverseCall

	mu sync.Mutex // protects all fields above
}

type StructuredCall struct {
	Model  string
	Prompt string
	Schema *genai.Schema
}

type ImageCall struct {
	Model       string
	Prompt      string
	AspectRatio string
	ImageSize   string
}

type ConverseCall struct {
	Model          string
	SystemPreamble string
	Message        string
}

var _ GenAI = (*MockGenAI)(nil)

// MockStepJSON is the default structured response of the mock.
const MockStepJSON = `{"storyText":"Mock story","choices":["Go left","Go right"],"inventory":["Mock item"],"currentQuest":"Mock quest","imageDescription":"Mock scene","isGameOver":false}`

// MockImageBytes is the default image payload of the mock.
var MockImageBytes = []byte{0x89, 'P', 'N', 'G'}

func NewMockGenAI() *MockGenAI {
	return &MockGenAI{}
}

func (m *MockGenAI) GenerateStructured(ctx context.Context, model, prompt string, schema *genai.Schema) (string, error) {
	m.mu.Lock()
	m.StructuredCalls = append(m.StructuredCalls, StructuredCall{Model: model, Prompt: prompt, Schema: schema})
	fn := m.GenerateStructuredFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, model, prompt, schema)
	}
	return MockStepJSON, nil
}

func (m *MockGenAI) GenerateImage(ctx context.Context, model, prompt, aspectRatio, imageSize string) ([]ImagePart, error) {
	m.mu.Lock()
	m.ImageCalls = append(m.ImageCalls, ImageCall{Model: model, Prompt: prompt, AspectRatio: aspectRatio, ImageSize: imageSize})
	fn := m.GenerateImageFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, model, prompt, aspectRatio, imageSize)
	}
	return []ImagePart{{MIMEType: "image/png", Data: MockImageBytes}}, nil
}

func (m *MockGenAI) Converse(ctx context.Context, model, systemPreamble, message string) (string, error) {
	m.mu.Lock()
	m.ConverseCalls = append(m.ConverseCalls, ConverseCall{Model: model, SystemPreamble: systemPreamble, Message: message})
	fn := m.ConverseFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, model, systemPreamble, message)
	}
	return "Mock lore", nil
}

// SetStructuredResponse sets up the mock to return raw on GenerateStructured
func (m *MockGenAI) SetStructuredResponse(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateStructuredFunc = func(ctx context.Context, model, prompt string, schema *genai.Schema) (string, error) {
		return raw, nil
	}
}

// SetStructuredError sets up the mock to return an error on GenerateStructured
func (m *MockGenAI) SetStructuredError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateStructuredFunc = func(ctx context.Context, model, prompt string, schema *genai.Schema) (string, error) {
		return "", err
	}
}

// SetImageParts sets up the mock to return parts on GenerateImage
func (m *MockGenAI) SetImageParts(parts []ImagePart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateImageFunc = func(ctx context.Context, model, prompt, aspectRatio, imageSize string) ([]ImagePart, error) {
		return parts, nil
	}
}

// SetImageError sets up the mock to return an error on GenerateImage
func (m *MockGenAI) SetImageError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateImageFunc = func(ctx context.Context, model, prompt, aspectRatio, imageSize string) ([]ImagePart, error) {
		return nil, err
	}
}

// SetConverseError sets up the mock to return an error on Converse
func (m *MockGenAI) SetConverseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConverseFunc = func(ctx context.Context, model, systemPreamble, message string) (string, error) {
		return "", err
	}
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockGenAI) GetCalls() ([]StructuredCall, []ImageCall, []ConverseCall) {
	m.mu.Lock()
	defer m.mu.Unlock()

	structured := make([]StructuredCall, len(m.StructuredCalls))
	copy(structured, m.StructuredCalls)

	images := make([]ImageCall, len(m.ImageCalls))
	copy(images, m.ImageCalls)

	converse := make([]ConverseCall, len(m.ConverseCalls))
	copy(converse, m.ConverseCalls)

	return structured, images, converse
}

// Reset clears all call tracking
func (m *MockGenAI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StructuredCalls = nil
	m.ImageCalls = nil
	m.ConverseCalls = nil
}
