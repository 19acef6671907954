package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/n0roo/filiere-kit/internal/document"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#003DA5") // Bleu
	secondaryColor = lipgloss.Color("#10B981") // Vert
	warningColor   = lipgloss.Color("#F59E0B") // Jaune
	errorColor     = lipgloss.Color("#EF4444") // Rouge
	mutedColor     = lipgloss.Color("#6B7280") // Gris

	// Base styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	// Box styles
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(34)

	// Status styles
	statusPendingStyle = lipgloss.NewStyle().
				Foreground(warningColor)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(errorColor)

	statusMutedStyle = lipgloss.NewStyle().
				Foreground(mutedColor)

	// Tab styles
	tabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(mutedColor)

	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(primaryColor).
			Bold(true).
			Underline(true)

	// Help style
	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	// Progress bar
	progressFullStyle = lipgloss.NewStyle().
				Foreground(secondaryColor)

	progressEmptyStyle = lipgloss.NewStyle().
				Foreground(mutedColor)

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Width(28)

	detailValueStyle = lipgloss.NewStyle().
				Bold(true)
)

// RenderProgressBar renders a progress bar. percent is clamped to [0, 1].
func RenderProgressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	filled := int(percent * float64(width))
	empty := width - filled

	return progressFullStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", empty))
}

// stateColor returns the border color configured for a state, or the
// primary color.
func stateColor(doc *document.Document, key string) lipgloss.TerminalColor {
	if s, ok := doc.EtatsAvancement[key]; ok {
		if s.CouleurBordure != "" {
			return lipgloss.Color(s.CouleurBordure)
		}
		if s.Couleur != "" {
			return lipgloss.Color(s.Couleur)
		}
	}
	return primaryColor
}
