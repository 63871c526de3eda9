package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Catppuccin Mocha
	primaryColor   = lipgloss.Color("#89b4fa")
	secondaryColor = lipgloss.Color("#a6e3a1")
	warningColor   = lipgloss.Color("#fab387")
	dangerColor    = lipgloss.Color("#f38ba8")
	mutedColor     = lipgloss.Color("#6c7086")
	textColor      = lipgloss.Color("#f5e0dc")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(primaryColor).
			Padding(0, 1)

	normalStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	successStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1).
			Width(52)

	selectedCardStyle = cardStyle.
				BorderForeground(primaryColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2)

	initialStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1e1e2e")).
			Background(primaryColor).
			Padding(0, 1)

	stageDoneStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	stageTodoStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	focusedInputStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(primaryColor).
				Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	logoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)
)

const logo = "eatsdash"

func badgeStyle(badge string) lipgloss.Style {
	switch badge {
	case "Error":
		return errorStyle.Bold(true)
	case "Active Order":
		return successStyle.Bold(true)
	}
	return mutedStyle
}
