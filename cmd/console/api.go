package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle/pkg/chat"
	"github.com/jwebster45206/chronicle/pkg/state"
)

type ErrorResponse struct {
	Error              string `json:"error"`
	CredentialRequired bool   `json:"credential_required,omitempty"`
}

// APIError is a non-2xx reply from the API.
type APIError struct {
	Status             int
	Message            string
	CredentialRequired bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API returned status %d", e.Status)
	}
	return e.Message
}

func needsCredential(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.CredentialRequired
}

// Adventure mirrors the session view returned by the API.
type Adventure struct {
	ID        uuid.UUID            `json:"id"`
	Status    string               `json:"status"`
	Theme     string               `json:"theme"`
	ImageSize state.ImageSize      `json:"image_size"`
	GameState *state.GameState     `json:"gameState"`
	History   []state.HistoryEntry `json:"history"`
	Chat      []chat.ChatMessage   `json:"chat"`
}

type ImageSizeOption struct {
	Tier string          `json:"tier"`
	Size state.ImageSize `json:"size"`
}

type ThemesResponse struct {
	Themes           []string          `json:"themes"`
	DefaultTheme     string            `json:"default_theme"`
	ImageSizes       []ImageSizeOption `json:"image_sizes"`
	DefaultImageSize state.ImageSize   `json:"default_image_size"`
}

// Image is the current illustration as served by the API.
type Image struct {
	ContentType string
	Data        []byte
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	// A degraded event bus still serves adventures.
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusServiceUnavailable
}

// do sends a JSON request and decodes a JSON reply into out when out is non-nil.
func do(client *http.Client, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
		return &APIError{Status: status, Message: fmt.Sprintf("API returned status %d: %s", status, string(body))}
	}
	return &APIError{
		Status:             status,
		Message:            errorResp.Error,
		CredentialRequired: errorResp.CredentialRequired,
	}
}

func listThemes(client *http.Client, baseURL string) (*ThemesResponse, error) {
	var themes ThemesResponse
	if err := do(client, http.MethodGet, baseURL+"/v1/themes", nil, &themes); err != nil {
		return nil, err
	}
	return &themes, nil
}

func selectKey(client *http.Client, baseURL, apiKey string) error {
	return do(client, http.MethodPost, baseURL+"/v1/credentials", map[string]string{"api_key": apiKey}, nil)
}

func startBody(theme string, size state.ImageSize) map[string]string {
	return map[string]string{"theme": theme, "image_size": string(size)}
}

func createAdventure(client *http.Client, baseURL, theme string, size state.ImageSize) (*Adventure, error) {
	var adv Adventure
	if err := do(client, http.MethodPost, baseURL+"/v1/adventures", startBody(theme, size), &adv); err != nil {
		return nil, err
	}
	return &adv, nil
}

func startAdventure(client *http.Client, baseURL string, id uuid.UUID, theme string, size state.ImageSize) (*Adventure, error) {
	var adv Adventure
	url := fmt.Sprintf("%s/v1/adventures/%s/start", baseURL, id)
	if err := do(client, http.MethodPost, url, startBody(theme, size), &adv); err != nil {
		return nil, err
	}
	return &adv, nil
}

func getAdventure(client *http.Client, baseURL string, id uuid.UUID) (*Adventure, error) {
	var adv Adventure
	if err := do(client, http.MethodGet, fmt.Sprintf("%s/v1/adventures/%s", baseURL, id), nil, &adv); err != nil {
		return nil, err
	}
	return &adv, nil
}

func choose(client *http.Client, baseURL string, id uuid.UUID, choice string) (*Adventure, error) {
	var adv Adventure
	url := fmt.Sprintf("%s/v1/adventures/%s/choices", baseURL, id)
	if err := do(client, http.MethodPost, url, map[string]string{"choice": choice}, &adv); err != nil {
		return nil, err
	}
	return &adv, nil
}

func ask(client *http.Client, baseURL string, id uuid.UUID, question string) (*chat.ChatResponse, error) {
	var resp chat.ChatResponse
	url := fmt.Sprintf("%s/v1/adventures/%s/chat", baseURL, id)
	if err := do(client, http.MethodPost, url, chat.ChatRequest{Message: question}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func resetAdventure(client *http.Client, baseURL string, id uuid.UUID) (*Adventure, error) {
	var adv Adventure
	if err := do(client, http.MethodDelete, fmt.Sprintf("%s/v1/adventures/%s", baseURL, id), nil, &adv); err != nil {
		return nil, err
	}
	return &adv, nil
}

func fetchImage(client *http.Client, baseURL string, id uuid.UUID) (*Image, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/adventures/%s/image", baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body)
	}
	return &Image{ContentType: resp.Header.Get("Content-Type"), Data: body}, nil
}
