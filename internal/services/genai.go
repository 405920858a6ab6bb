package services

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrCredentialRequired means no usable API key is selected. The user
	// must (re)select one; the failed action is not retried.
	ErrCredentialRequired = errors.New("api credential required")

	// ErrEntityNotFound is the "Requested entity was not found" failure the
	// Gemini API returns for a key without access to the requested model.
	ErrEntityNotFound = errors.New("requested entity was not found")
)

const entityNotFoundMessage = "requested entity was not found"

// ImagePart is one inline image returned by the image model.
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// GenAI defines the three logical operations of the generative API.
type GenAI interface {
	// GenerateStructured returns raw JSON constrained by schema.
	GenerateStructured(ctx context.Context, model, prompt string, schema *genai.Schema) (string, error)

	// GenerateImage returns every inline image part of the response.
	// An empty slice with a nil error means the model returned no image.
	GenerateImage(ctx context.Context, model, prompt, aspectRatio, imageSize string) ([]ImagePart, error)

	// Converse sends a single message under a system preamble. No prior
	// turns are included.
	Converse(ctx context.Context, model, systemPreamble, message string) (string, error)
}

// IsEntityNotFound reports whether err is the API's entity-not-found
// condition, which signals an access problem with the selected key.
func IsEntityNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrEntityNotFound) {
		return true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return strings.Contains(strings.ToLower(apiErr.Message), entityNotFoundMessage)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return strings.Contains(strings.ToLower(apiErrPtr.Message), entityNotFoundMessage)
	}
	return strings.Contains(strings.ToLower(err.Error()), entityNotFoundMessage)
}

// IsCredentialError reports whether err should send the user back to
// credential selection.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrCredentialRequired) || IsEntityNotFound(err)
}
