package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles palette, symbols and box borders for plain CLI output.
type Theme struct {
	Name                                          string
	Title, Muted, Accent, Success, Error, Pending lipgloss.TerminalColor
	Border                                        lipgloss.Border
	SymOK, SymFail, SymBullet                     string
	BarFull, BarEmpty                             string
}

// Themes lists the accepted theme names, default first.
var Themes = []string{"classic", "neon", "mono"}

var asciiBorder = lipgloss.Border{
	Top: "-", Bottom: "-", Left: "|", Right: "|",
	TopLeft: "+", TopRight: "+", BottomLeft: "+", BottomRight: "+",
}

// ThemeByName returns the named theme. Unknown names give classic and false.
func ThemeByName(name string) (Theme, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "neon":
		return Theme{
			Name:  "neon",
			Title: lipgloss.Color("13"), Muted: lipgloss.Color("8"), Accent: lipgloss.Color("14"),
			Success: lipgloss.Color("10"), Error: lipgloss.Color("9"), Pending: lipgloss.Color("11"),
			Border: lipgloss.RoundedBorder(),
			SymOK:  "✔", SymFail: "✖", SymBullet: "•",
			BarFull: "█", BarEmpty: "░",
		}, true
	case "mono":
		return Theme{
			Name:  "mono",
			Title: lipgloss.NoColor{}, Muted: lipgloss.NoColor{}, Accent: lipgloss.NoColor{},
			Success: lipgloss.NoColor{}, Error: lipgloss.NoColor{}, Pending: lipgloss.NoColor{},
			Border: asciiBorder,
			SymOK:  "ok", SymFail: "x", SymBullet: "-",
			BarFull: "#", BarEmpty: ".",
		}, true
	case "classic", "":
		return classic(), true
	default:
		return classic(), false
	}
}

func classic() Theme {
	return Theme{
		Name:  "classic",
		Title: lipgloss.NoColor{}, Muted: lipgloss.Color("8"), Accent: lipgloss.Color("12"),
		Success: lipgloss.Color("42"), Error: lipgloss.Color("9"), Pending: lipgloss.Color("214"),
		Border: lipgloss.NormalBorder(),
		SymOK:  "✔", SymFail: "✖", SymBullet: "•",
		BarFull: "█", BarEmpty: "░",
	}
}
