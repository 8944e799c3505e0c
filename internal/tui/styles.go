package tui

import "github.com/charmbracelet/lipgloss"

// styles contains all lipgloss styles used by the TUI.
var styles = struct {
	// Layout styles
	Container lipgloss.Style
	Divider   lipgloss.Style

	// Header styles
	Title    lipgloss.Style
	Subtitle lipgloss.Style

	// Countdown card
	CardTitle lipgloss.Style
	Digit     lipgloss.Style
	Label     lipgloss.Style
	Live      lipgloss.Style
	Fallback  lipgloss.Style
	Link      lipgloss.Style

	// Hero panel
	Slide     lipgloss.Style
	Image     lipgloss.Style
	DotActive lipgloss.Style
	Dot       lipgloss.Style

	// Event feed and status line
	Muted   lipgloss.Style
	Control lipgloss.Style
	Status  lipgloss.Style
	Error   lipgloss.Style
}{
	// Layout styles
	Container: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	// Header styles
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	// Countdown card
	CardTitle: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("220")),

	Digit: lipgloss.NewStyle().
		Bold(true).
		Width(6).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Foreground(lipgloss.Color("255")),

	Label: lipgloss.NewStyle().
		Width(8).
		Align(lipgloss.Center).
		Foreground(lipgloss.Color("245")),

	Live: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	Fallback: lipgloss.NewStyle().
		Italic(true).
		Foreground(lipgloss.Color("214")),

	Link: lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")),

	// Hero panel
	Slide: lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")),

	Image: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	DotActive: lipgloss.NewStyle().
		Foreground(lipgloss.Color("212")),

	Dot: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	// Event feed and status line
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Control: lipgloss.NewStyle().
		Foreground(lipgloss.Color("177")),

	Status: lipgloss.NewStyle().
		Foreground(lipgloss.Color("114")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),
}
