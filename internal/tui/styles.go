// Package tui is the interactive attendance browser.
package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Muted    lipgloss.Style
	Border   lipgloss.Style
	Key      lipgloss.Style
	Value    lipgloss.Style
	Pending  lipgloss.Style
	Approved lipgloss.Style
	Rejected lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")),
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2),
		Key: lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true),
		Value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Pending:  lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		Approved: lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		Rejected: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}
