// Package ui implements the interactive search-results browser launched by
// `webindex search --interactive` (SPEC_FULL.md §6 CLI surface): a list of
// ranked passages on the left, the selected passage's full text on the
// right.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette, carried over from the teacher's lime-green accent scheme.
const (
	ColorLime     = "154"
	ColorLimeDim  = "106"
	ColorWhite    = "255"
	ColorGray     = "245"
	ColorDarkGray = "238"
)

// Styles holds the lipgloss styles used by the results browser.
type Styles struct {
	Header   lipgloss.Style
	Dim      lipgloss.Style
	Score    lipgloss.Style
	Panel    lipgloss.Style
	Title    lipgloss.Style
}

// DefaultStyles returns the browser's styled components.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Score:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLimeDim)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
	}
}

// NoColorStyles returns unstyled components, for non-TTY or NO_COLOR output.
func NoColorStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle(),
		Dim:    lipgloss.NewStyle(),
		Score:  lipgloss.NewStyle(),
		Panel:  lipgloss.NewStyle(),
		Title:  lipgloss.NewStyle(),
	}
}
