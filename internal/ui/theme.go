package ui

import "github.com/charmbracelet/lipgloss"

// Brand red, as used by the login and profile views.
var (
	brandRed = lipgloss.Color("#F55247")

	ContentStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(brandRed).
			Bold(true).
			Padding(0, 1)
)
