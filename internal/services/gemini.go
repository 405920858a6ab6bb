package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"google.golang.org/genai"
)

// GeminiService implements GenAI on the Google Gen AI SDK. The client is
// rebuilt whenever a different key is selected on the key ring.
type GeminiService struct {
	keys       *KeyRing
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu            sync.Mutex
	client        *genai.Client
	clientVersion uint64
}

var _ GenAI = (*GeminiService)(nil)

// GeminiOption customizes a GeminiService.
type GeminiOption func(*GeminiService)

// WithBaseURL points the service at a different API endpoint.
func WithBaseURL(baseURL string) GeminiOption {
	return func(s *GeminiService) {
		s.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(s *GeminiService) {
		s.httpClient = c
	}
}

func NewGeminiService(keys *KeyRing, logger *slog.Logger, opts ...GeminiOption) *GeminiService {
	s := &GeminiService{
		keys:   keys,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clientFor returns a client for the selected key along with the key version
// it was built for.
func (s *GeminiService) clientFor(ctx context.Context) (*genai.Client, uint64, error) {
	key, version := s.keys.Key()
	if key == "" {
		return nil, version, ErrCredentialRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil && s.clientVersion == version {
		return s.client, version, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      key,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  s.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: s.baseURL},
	})
	if err != nil {
		return nil, version, fmt.Errorf("failed to create genai client: %w", err)
	}

	s.client = client
	s.clientVersion = version
	s.logger.Debug("Gen AI client created", "key_version", version)
	return client, version, nil
}

// wrapError classifies an SDK error. Entity-not-found invalidates the key
// that produced it.
func (s *GeminiService) wrapError(op string, version uint64, err error) error {
	if IsEntityNotFound(err) {
		if s.keys.Invalidate(version) {
			s.logger.Warn("API key rejected, credential selection required", "operation", op)
		}
		return fmt.Errorf("%s: %w: %v", op, ErrEntityNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *GeminiService) GenerateStructured(ctx context.Context, model, prompt string, schema *genai.Schema) (string, error) {
	client, version, err := s.clientFor(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := client.Models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		config)
	if err != nil {
		return "", s.wrapError("structured generation", version, err)
	}

	return resp.Text(), nil
}

func (s *GeminiService) GenerateImage(ctx context.Context, model, prompt, aspectRatio, imageSize string) ([]ImagePart, error) {
	client, version, err := s.clientFor(ctx)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: aspectRatio,
			ImageSize:   imageSize,
		},
	}

	resp, err := client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{genai.NewPartFromText(prompt)}}},
		config)
	if err != nil {
		return nil, s.wrapError("image generation", version, err)
	}

	var parts []ImagePart
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			parts = append(parts, ImagePart{
				MIMEType: part.InlineData.MIMEType,
				Data:     part.InlineData.Data,
			})
		}
	}
	return parts, nil
}

func (s *GeminiService) Converse(ctx context.Context, model, systemPreamble, message string) (string, error) {
	client, version, err := s.clientFor(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPreamble, genai.RoleUser),
	}

	chat, err := client.Chats.Create(ctx, model, config, nil)
	if err != nil {
		return "", s.wrapError("conversation", version, err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", s.wrapError("conversation", version, err)
	}

	return resp.Text(), nil
}
