package story

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/chronicle/internal/services"
	"github.com/jwebster45206/chronicle/pkg/prompts"
	"github.com/jwebster45206/chronicle/pkg/state"
)

// ErrNoImageData is returned when the image model answers without an image.
var ErrNoImageData = errors.New("no image data returned from image model")

// AspectRatio is fixed for every scene.
const AspectRatio = "16:9"

const defaultImageMIME = "image/png"

// Illustration is one generated scene image.
type Illustration struct {
	MIMEType string
	Data     []byte
}

// DataURI encodes the image as a self-contained data URI.
func (i *Illustration) DataURI() string {
	mime := i.MIMEType
	if mime == "" {
		mime = defaultImageMIME
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(i.Data))
}

// Illustrator renders scene descriptions in a session's visual style.
type Illustrator struct {
	ai     services.GenAI
	model  string
	logger *slog.Logger
}

func NewIllustrator(ai services.GenAI, model string, logger *slog.Logger) *Illustrator {
	return &Illustrator{
		ai:     ai,
		model:  model,
		logger: logger,
	}
}

func (il *Illustrator) Illustrate(ctx context.Context, description, style string, size state.ImageSize) (*Illustration, error) {
	if size == "" {
		size = state.DefaultImageSize
	}

	parts, err := il.ai.GenerateImage(ctx, il.model, prompts.BuildImagePrompt(style, description), AspectRatio, string(size))
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	for _, p := range parts {
		if len(p.Data) == 0 {
			continue
		}
		mime := p.MIMEType
		if mime == "" {
			mime = defaultImageMIME
		}
		il.logger.Debug("Scene illustrated", "mime_type", mime, "bytes", len(p.Data), "image_size", size)
		return &Illustration{MIMEType: mime, Data: p.Data}, nil
	}
	return nil, ErrNoImageData
}
