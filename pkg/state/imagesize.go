package state

import (
	"fmt"
	"strings"
)

// ImageSize is the resolution tier requested from the image model.
type ImageSize string

const (
	ImageSizeLow    ImageSize = "1K"
	ImageSizeMedium ImageSize = "2K"
	ImageSizeHigh   ImageSize = "4K"

	DefaultImageSize = ImageSizeLow
)

// ImageSizes lists the tiers in ascending order.
var ImageSizes = []ImageSize{ImageSizeLow, ImageSizeMedium, ImageSizeHigh}

// ParseImageSize accepts either the tier name (low/medium/high) or the
// wire value (1K/2K/4K). An empty string yields the default tier.
func ParseImageSize(s string) (ImageSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultImageSize, nil
	case "low", "1k":
		return ImageSizeLow, nil
	case "medium", "2k":
		return ImageSizeMedium, nil
	case "high", "4k":
		return ImageSizeHigh, nil
	default:
		return "", fmt.Errorf("unknown image size %q: expected one of low, medium, high, 1K, 2K, 4K", s)
	}
}

// Tier returns the coarse tier name.
func (s ImageSize) Tier() string {
	switch s {
	case ImageSizeLow:
		return "low"
	case ImageSizeMedium:
		return "medium"
	case ImageSizeHigh:
		return "high"
	default:
		return ""
	}
}
