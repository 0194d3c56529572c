package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	bulletStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).PaddingRight(1)
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	trimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	deleteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	extractStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	playheadStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)
