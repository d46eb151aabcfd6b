package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors by role. The dashboard reads top to bottom as a feed, so the
// palette stays close to a dark timeline with a single blue accent.
var (
	colorAccent = lipgloss.Color("#1D9BF0")
	colorOK     = lipgloss.Color("#00BA7C")
	colorWarn   = lipgloss.Color("#FFAD1F")
	colorFail   = lipgloss.Color("#F4212E")
	colorInk    = lipgloss.Color("#E7E9EA")
	colorMuted  = lipgloss.Color("#71767B")
	colorTrack  = lipgloss.Color("#2F3336")
	colorCanvas = lipgloss.Color("#000000")
	colorCard   = lipgloss.Color("#16181C")
)

var (
	screenStyle = lipgloss.NewStyle().
			Background(colorCanvas).
			Foreground(colorInk)

	bannerStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorTrack).
			Background(colorCard).
			Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Underline(true)

	labelStyle = lipgloss.NewStyle().Foreground(colorMuted)
	valueStyle = lipgloss.NewStyle().Foreground(colorInk).Bold(true)
	rateStyle  = lipgloss.NewStyle().Foreground(colorAccent)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)

	okStyle   = lipgloss.NewStyle().Foreground(colorOK).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(colorFail).Bold(true)

	pendingStyle = lipgloss.NewStyle().PaddingLeft(2)
	activeStyle  = lipgloss.NewStyle().Foreground(colorOK).Bold(true).PaddingLeft(2)
	doneStyle    = lipgloss.NewStyle().Foreground(colorMuted).Faint(true).PaddingLeft(2)

	meterTrackStyle = lipgloss.NewStyle().Foreground(colorTrack)
	clockStyle      = lipgloss.NewStyle().Foreground(colorMuted)
	hintStyle       = lipgloss.NewStyle().Foreground(colorMuted).Padding(1, 0, 0, 2)
)

// stallStyle colors the stagnation meter by how much of the ceiling the
// current run of empty passes has used
func stallStyle(usage float64) lipgloss.Style {
	switch {
	case usage >= 80:
		return lipgloss.NewStyle().Foreground(colorFail)
	case usage >= 50:
		return lipgloss.NewStyle().Foreground(colorWarn)
	default:
		return lipgloss.NewStyle().Foreground(colorOK)
	}
}
