package tui

import "github.com/charmbracelet/lipgloss"

// Color Palette
// Single source of truth for the tree view's colors.
var (
	salmonPink  = lipgloss.Color("#FFB3BA") // primary accent
	coralPink   = lipgloss.Color("#FFCCCB") // secondary accent
	mintGreen   = lipgloss.Color("#A8E6CF") // success states
	mutedGray   = lipgloss.Color("#6B7280") // secondary text
	brightWhite = lipgloss.Color("#F9FAFB") // primary text
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	tipsStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	folderStyle = lipgloss.NewStyle().
			Foreground(coralPink).
			Bold(true)

	leafStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	cursorStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	markedStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Italic(true)

	successStyle = lipgloss.NewStyle().
			Foreground(mintGreen)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 1)

	previewStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)
)
