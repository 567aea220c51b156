package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#00BFFF")

	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#005F87")).
			Bold(true).
			Padding(0, 1)

	ServerStyle = lipgloss.NewStyle().
			Foreground(accent).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Padding(0, 1)
)
