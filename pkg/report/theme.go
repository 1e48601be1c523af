package report

import (
	"errors"
	"fmt"
)

// Theme is the colour theme of a report.
type Theme string

const (
	// ThemeLight is the light colour theme.
	ThemeLight Theme = "light"
	// ThemeDark is the dark colour theme.
	ThemeDark Theme = "dark"
)

// ErrUnknownTheme is returned by ParseTheme.
var ErrUnknownTheme = errors.New("unknown theme")

// ParseTheme resolves a theme name. Empty selects ThemeLight.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case "", ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
	}
}

// ThemeConfig holds the page and chart colours of a theme.
type ThemeConfig struct {
	// Page.
	Background    string
	Surface       string
	Border        string
	TextPrimary   string
	TextSecondary string
	TextMuted     string
	Accent        string

	// Chart.
	ChartGrid      string
	ChartAxis      string
	ChartText      string
	ChartTextMuted string

	// Series colours: daily values, moving average, period bars.
	Daily   string
	Average string
	Bars    string
}

// GetThemeConfig returns the configuration for a theme. Unknown themes fall
// back to light.
func GetThemeConfig(theme Theme) ThemeConfig {
	if theme == ThemeDark {
		return darkTheme
	}

	return lightTheme
}

var lightTheme = ThemeConfig{
	Background:    "#fafaf9", // stone-50.
	Surface:       "#ffffff",
	Border:        "#e7e5e4", // stone-200.
	TextPrimary:   "#1c1917", // stone-900.
	TextSecondary: "#44403c", // stone-700.
	TextMuted:     "#78716c", // stone-500.
	Accent:        "#b91c1c", // red-700.

	ChartGrid:      "#e7e5e4",
	ChartAxis:      "#a8a29e", // stone-400.
	ChartText:      "#44403c",
	ChartTextMuted: "#78716c",

	Daily:   "#b91c1c",
	Average: "#1c1917",
	Bars:    "#7f1d1d", // red-900.
}

var darkTheme = ThemeConfig{
	Background:    "#0c0a09", // stone-950.
	Surface:       "#1c1917",
	Border:        "#44403c",
	TextPrimary:   "#fafaf9",
	TextSecondary: "#d6d3d1", // stone-300.
	TextMuted:     "#a8a29e",
	Accent:        "#ef4444", // red-500.

	ChartGrid:      "#44403c",
	ChartAxis:      "#57534e", // stone-600.
	ChartText:      "#d6d3d1",
	ChartTextMuted: "#a8a29e",

	Daily:   "#f87171", // red-400.
	Average: "#fafaf9",
	Bars:    "#ef4444",
}
