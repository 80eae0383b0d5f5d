package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Colour palette for terminal output.
var (
	colourPrimary   = lipgloss.Color("#7C3AED") // Purple
	colourSecondary = lipgloss.Color("#06B6D4") // Cyan
	colourMuted     = lipgloss.Color("#6C7086") // Medium gray
	colourSuccess   = lipgloss.Color("#A6E3A1") // Green
	colourWarning   = lipgloss.Color("#F9E2AF") // Yellow
	colourError     = lipgloss.Color("#F38BA8") // Red
)

// styles contains pre-configured lipgloss styles for command output.
type styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Score   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// newStyles creates the output styles. Colour is dropped automatically when
// the output is not a terminal.
func newStyles() *styles {
	return &styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(colourPrimary),

		Label: lipgloss.NewStyle().
			Bold(true).
			Foreground(colourSecondary).
			Width(14),

		Muted: lipgloss.NewStyle().
			Foreground(colourMuted),

		Score: lipgloss.NewStyle().
			Foreground(colourSecondary),

		Success: lipgloss.NewStyle().
			Foreground(colourSuccess),

		Warning: lipgloss.NewStyle().
			Foreground(colourWarning),

		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(colourError),
	}
}

// row renders an aligned "label value" line.
func (s *styles) row(label, value string) string {
	return "  " + s.Label.Render(label) + value
}
