package cli

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Agent   lipgloss.Color // Agent transcript lines
	User    lipgloss.Color // User transcript lines
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Agent:   lipgloss.Color("#7aa2f7"),
	User:    lipgloss.Color("#e0af68"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Agent lipgloss.Style
	User  lipgloss.Style
	Help  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Agent: lipgloss.NewStyle().Foreground(t.Agent),
		User:  lipgloss.NewStyle().Foreground(t.User),
		Help:  lipgloss.NewStyle().Foreground(t.Dim),
	}
}
