package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dearxcorex/MakeItFast/internal/station"
)

// Theme holds every style the dashboard renders with. It is passed in
// explicitly through Config; nothing in this package reads ambient state.
type Theme struct {
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Header    lipgloss.Style
	Row       lipgloss.Style
	Selected  lipgloss.Style
	StatusBar lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style

	// Marker styles keyed by icon category, mirroring the map pins.
	NotSubmitted lipgloss.Style
	OffAir       lipgloss.Style
	Inspected    lipgloss.Style
	NotInspected lipgloss.Style
}

// DefaultTheme returns the standard dashboard palette.
func DefaultTheme() Theme {
	var (
		colorPrimary = lipgloss.Color("#00BFFF")
		colorMuted   = lipgloss.Color("#6C757D")
		colorDanger  = lipgloss.Color("#FF6B6B")
		colorWarning = lipgloss.Color("#FFD93D")
		colorSuccess = lipgloss.Color("#6BCF7F")
	)

	return Theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary),
		Muted: lipgloss.NewStyle().
			Foreground(colorMuted),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMuted),
		Row: lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary),
		StatusBar: lipgloss.NewStyle().
			Foreground(colorMuted),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorDanger),
		Help: lipgloss.NewStyle().
			Foreground(colorMuted),

		NotSubmitted: lipgloss.NewStyle().Foreground(colorDanger),
		OffAir:       lipgloss.NewStyle().Foreground(colorMuted),
		Inspected:    lipgloss.NewStyle().Foreground(colorSuccess),
		NotInspected: lipgloss.NewStyle().Foreground(colorWarning),
	}
}

// markerStyle returns the style for one icon category.
func (t Theme) markerStyle(m station.MarkerCategory) lipgloss.Style {
	switch m {
	case station.MarkerNotSubmitted:
		return t.NotSubmitted
	case station.MarkerOffAir:
		return t.OffAir
	case station.MarkerInspected:
		return t.Inspected
	default:
		return t.NotInspected
	}
}

// markerGlyph returns the one-character pin for one icon category.
func markerGlyph(m station.MarkerCategory) string {
	switch m {
	case station.MarkerNotSubmitted:
		return "✗"
	case station.MarkerOffAir:
		return "·"
	case station.MarkerInspected:
		return "✓"
	default:
		return "○"
	}
}
