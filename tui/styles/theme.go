package styles

import (
	"maps"
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// DefaultSlug is the theme used when none is configured or the configured
// one is unknown.
const DefaultSlug = "solarized-dark"

// Theme is a Base16 color scheme.
type Theme struct {
	Name   string
	Base00 lipgloss.Color // Background
	Base01 lipgloss.Color // Lighter background
	Base02 lipgloss.Color // Selection
	Base03 lipgloss.Color // Comments / dim
	Base04 lipgloss.Color // Light foreground
	Base05 lipgloss.Color // Foreground
	Base06 lipgloss.Color // Light foreground
	Base07 lipgloss.Color // Light background
	Base08 lipgloss.Color // Red
	Base09 lipgloss.Color // Orange
	Base0A lipgloss.Color // Yellow
	Base0B lipgloss.Color // Green
	Base0C lipgloss.Color // Cyan
	Base0D lipgloss.Color // Blue
	Base0E lipgloss.Color // Magenta
	Base0F lipgloss.Color // Brown
}

var sortedSlugs = slices.Sorted(maps.Keys(Themes))

// GetThemeByName returns a theme by its slug, or nil if not found.
func GetThemeByName(slug string) *Theme {
	t, ok := Themes[slug]
	if !ok {
		return nil
	}
	return &t
}

// Resolve returns the theme for slug, falling back to DefaultSlug.
func Resolve(slug string) Theme {
	if t, ok := Themes[slug]; ok {
		return t
	}
	return Themes[DefaultSlug]
}

// ListThemes returns sorted theme slugs.
func ListThemes() []string {
	return slices.Clone(sortedSlugs)
}

// Cycle returns the slug delta positions away from slug in sorted order,
// wrapping at both ends. An unknown slug starts from the first theme.
func Cycle(slug string, delta int) string {
	n := len(sortedSlugs)
	i := slices.Index(sortedSlugs, slug)
	if i < 0 {
		i = 0
	}
	return sortedSlugs[((i+delta)%n+n)%n]
}
