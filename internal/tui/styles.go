// File: internal/tui/styles.go
package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#8BC34A")
	colorMuted  = lipgloss.Color("#6b7785")
	colorWarn   = lipgloss.Color("#FFC107")
	colorError  = lipgloss.Color("#e53935")
	colorBorder = lipgloss.Color("#2a3850")
)

// Styles groups the lipgloss styles the views use.
type Styles struct {
	Header   lipgloss.Style
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Pointer  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Panel    lipgloss.Style
	Focused  lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles returns the stock palette.
func DefaultStyles() Styles {
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		MarginRight(1)
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Title:    lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Pointer:  lipgloss.NewStyle().Bold(true).Foreground(colorWarn),
		Warning:  lipgloss.NewStyle().Foreground(colorWarn),
		Error:    lipgloss.NewStyle().Foreground(colorError),
		Panel:    panel,
		Focused:  panel.BorderForeground(colorAccent),
		Help:     lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
	}
}
