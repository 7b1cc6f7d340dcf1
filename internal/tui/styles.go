package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Adaptive so the screens stay readable on light terminals.
var (
	accent = lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#9D8CFF"}
	muted  = lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}
	good   = lipgloss.AdaptiveColor{Light: "#1F7A3A", Dark: "#5FD787"}
	bad    = lipgloss.AdaptiveColor{Light: "#B3261E", Dark: "#FF6B6B"}
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	subtitleStyle = lipgloss.NewStyle().Foreground(muted).MarginBottom(1)
	dimStyle      = lipgloss.NewStyle().Foreground(muted)
	helpStyle     = lipgloss.NewStyle().Foreground(muted).Italic(true).MarginTop(1)

	successStyle = lipgloss.NewStyle().Bold(true).Foreground(good)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(bad)

	// cursor row in lists and the review screen
	highlightStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	selectedStyle  = lipgloss.NewStyle().Bold(true).Underline(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)
)
