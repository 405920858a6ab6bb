package state

import (
	"fmt"
	"strings"
)

// Built-in adventure themes. Any other non-empty theme is accepted as-is.
const (
	ThemeFantasy   = "Epic High Fantasy"
	ThemeCyberpunk = "Gritty Cyberpunk"
	ThemeHorror    = "Gothic Horror"
	ThemeSpace     = "Sci-Fi Space Opera"

	DefaultTheme = ThemeFantasy
)

var Themes = []string{ThemeFantasy, ThemeCyberpunk, ThemeHorror, ThemeSpace}

const maxThemeLength = 120

// NormalizeTheme trims the theme and applies the default when empty.
func NormalizeTheme(theme string) (string, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return DefaultTheme, nil
	}
	if len(theme) > maxThemeLength {
		return "", fmt.Errorf("theme must be at most %d characters", maxThemeLength)
	}
	return theme, nil
}

// VisualStyleFor derives the session's fixed visual style from its theme.
func VisualStyleFor(theme string) string {
	return fmt.Sprintf("High-quality cinematic concept art, %s theme, consistent illustrative style, detailed environments", theme)
}
