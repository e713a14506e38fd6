// Package ui holds the lipgloss styles and small renderers shared by the
// command-line output and the interactive TUI.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles styles, symbols and the panel border.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error, Priority lipgloss.Style
	Selected                                       lipgloss.Style

	Border         lipgloss.Border
	BorderColor    lipgloss.TerminalColor
	SymOK, SymFail string
	SymCursor      string
	BarFull        string
	BarEmpty       string
}

var monoBorder = lipgloss.Border{
	Top: "-", Bottom: "-", Left: "|", Right: "|",
	TopLeft: "+", TopRight: "+", BottomLeft: "+", BottomRight: "+",
}

// NewTheme returns the named theme. Unknown names get classic.
func NewTheme(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mono":
		plain := lipgloss.NewStyle()
		return Theme{
			Name:  "mono",
			Title: plain, Muted: plain, Accent: plain,
			Success: plain, Error: plain, Priority: plain,
			Selected:    plain,
			Border:      monoBorder,
			BorderColor: lipgloss.NoColor{},
			SymOK:       "ok",
			SymFail:     "error:",
			SymCursor:   ">",
			BarFull:     "#",
			BarEmpty:    ".",
		}
	default:
		return Theme{
			Name:        "classic",
			Title:       lipgloss.NewStyle().Bold(true),
			Muted:       lipgloss.NewStyle().Faint(true),
			Accent:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
			Success:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			Priority:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
			Selected:    lipgloss.NewStyle().Bold(true).Reverse(true),
			Border:      lipgloss.RoundedBorder(),
			BorderColor: lipgloss.Color("8"),
			SymOK:       "✔",
			SymFail:     "✖",
			SymCursor:   ">",
			BarFull:     "█",
			BarEmpty:    "░",
		}
	}
}

// OK renders a success line.
func (t Theme) OK(msg string) string {
	return t.Success.Render(t.SymOK + " " + msg)
}

// Fail renders an error line.
func (t Theme) Fail(msg string) string {
	return t.Error.Render(t.SymFail + " " + msg)
}
