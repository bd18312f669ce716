package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for the TUI.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color

	// Border is the border colour.
	Border lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
		Error:     lipgloss.Color("#F38BA8"), // Red
		Border:    lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	// Title style for the header.
	Title lipgloss.Style

	// User style for user messages.
	User lipgloss.Style

	// Assistant style for assistant messages.
	Assistant lipgloss.Style

	// Source style for provenance lines.
	Source lipgloss.Style

	// Muted style for hints and the status line.
	Muted lipgloss.Style

	// Error style for error messages.
	Error lipgloss.Style

	// InputField style for the question input.
	InputField lipgloss.Style
}

// DefaultStyles builds styles from the default theme.
func DefaultStyles() *Styles {
	theme := DefaultTheme()
	return &Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		User:      lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Assistant: lipgloss.NewStyle(),
		Source:    lipgloss.NewStyle().Foreground(theme.Muted).Italic(true),
		Muted:     lipgloss.NewStyle().Foreground(theme.Muted),
		Error:     lipgloss.NewStyle().Foreground(theme.Error),
		InputField: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
	}
}
