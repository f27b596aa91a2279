// Package styles provides colour themes and styling for the progress TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette of the progress view.
type Theme struct {
	// Accent highlights the title and the spinner.
	Accent lipgloss.Color

	// Text is the default text colour.
	Text lipgloss.Color

	// Muted is for labels and hints.
	Muted lipgloss.Color

	// Success marks created and matched counters.
	Success lipgloss.Color

	// Warning marks skips and unmatched videos.
	Warning lipgloss.Color

	// Error marks a failed run.
	Error lipgloss.Color

	// Border frames the counters panel.
	Border lipgloss.Color

	// Bar is the status bar background.
	Bar lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:  lipgloss.Color("#89B4FA"), // Blue
		Text:    lipgloss.Color("#CDD6F4"), // Light gray
		Muted:   lipgloss.Color("#6C7086"), // Medium gray
		Success: lipgloss.Color("#A6E3A1"), // Green
		Warning: lipgloss.Color("#F9E2AF"), // Yellow
		Error:   lipgloss.Color("#F38BA8"), // Red
		Border:  lipgloss.Color("#45475A"),
		Bar:     lipgloss.Color("#181825"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Spinner   lipgloss.Style
	Panel     lipgloss.Style
	StatusBar lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent),

		Label: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Width(18),

		Value: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Text),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Error),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.Bar).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
