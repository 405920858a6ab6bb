package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/chronicle/pkg/state"
)

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

// ThemesHandler lists the built-in themes and resolution tiers.
// GET /v1/themes
type ThemesHandler struct {
	logger *slog.Logger
}

func NewThemesHandler(logger *slog.Logger) *ThemesHandler {
	return &ThemesHandler{logger: logger}
}

func (h *ThemesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	sizes := make([]ImageSizeOption, 0, len(state.ImageSizes))
	for _, s := range state.ImageSizes {
		sizes = append(sizes, ImageSizeOption{Tier: s.Tier(), Size: s})
	}

	writeJSON(w, h.logger, http.StatusOK, ThemesResponse{
		Themes:           state.Themes,
		DefaultTheme:     state.DefaultTheme,
		ImageSizes:       sizes,
		DefaultImageSize: state.DefaultImageSize,
	})
}
