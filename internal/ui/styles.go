package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activeSegment = lipgloss.NewStyle().Reverse(true).Padding(0, 1)
	segment       = lipgloss.NewStyle().Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Italic(true)
)

func keyLabel(k string) string {
	if k == " " {
		return "space"
	}
	return k
}
