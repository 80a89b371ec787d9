package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ------- styling helpers (Lip Gloss) -------
var (
	titleStyle   lipgloss.Style
	successStyle lipgloss.Style
	pendingStyle lipgloss.Style
	accentStyle  lipgloss.Style
	mutedStyle   lipgloss.Style
	errorStyle   lipgloss.Style

	selectedStyle lipgloss.Style
	borderColor   lipgloss.TerminalColor

	boxChecked   = "☑"
	boxUnchecked = "☐"
	radioOn      = "◉"
	radioOff     = "○"
)

func init() { setTheme("classic") }

// setTheme switches the palette. mono drops every color and keeps the
// bold/faint attributes.
func setTheme(name string) {
	base := lipgloss.NewStyle()
	titleStyle = base.Bold(true)
	selectedStyle = base.Bold(true).Reverse(true)
	mutedStyle = base.Faint(true)

	switch strings.ToLower(name) {
	case "mono":
		successStyle = base
		pendingStyle = base
		accentStyle = base.Underline(true)
		errorStyle = base.Bold(true)
		borderColor = lipgloss.NoColor{}
		boxChecked, boxUnchecked = "[x]", "[ ]"
		radioOn, radioOff = "(*)", "( )"
	case "neon":
		titleStyle = titleStyle.Foreground(lipgloss.Color("13"))
		successStyle = base.Foreground(lipgloss.Color("10"))
		pendingStyle = base.Foreground(lipgloss.Color("11"))
		accentStyle = base.Foreground(lipgloss.Color("14"))
		errorStyle = base.Foreground(lipgloss.Color("9")).Bold(true)
		borderColor = lipgloss.Color("13")
		boxChecked, boxUnchecked = "◼", "◻"
		radioOn, radioOff = "◉", "○"
	default:
		successStyle = base.Foreground(lipgloss.Color("42"))
		pendingStyle = base.Foreground(lipgloss.Color("214"))
		accentStyle = base.Foreground(lipgloss.Color("12"))
		errorStyle = base.Foreground(lipgloss.Color("9")).Bold(true)
		borderColor = lipgloss.Color("8")
		boxChecked, boxUnchecked = "☑", "☐"
		radioOn, radioOff = "◉", "○"
	}
}

func panelString(inner string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1)
	return border.Render(inner)
}

// statusLine renders a view status in its variant color.
func statusLine(text string, isError bool) string {
	if text == "" {
		return ""
	}
	if isError {
		return errorStyle.Render(text)
	}
	return mutedStyle.Render(text)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
