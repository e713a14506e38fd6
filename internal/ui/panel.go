package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Panel frames lines in the theme border.
func (t Theme) Panel(lines []string) string {
	return t.PanelStyle().Render(strings.Join(lines, "\n"))
}

// PanelStyle is the framed box style, exposed so callers can size it.
func (t Theme) PanelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.BorderColor).
		Padding(0, 1)
}

// CoverageBar renders "[███░░] used/total". A zero total draws an empty bar.
func (t Theme) CoverageBar(used, total, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := 0
	if total > 0 {
		filled = int(float64(used) / float64(total) * float64(width))
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat(t.BarFull, filled) + strings.Repeat(t.BarEmpty, width-filled) +
		fmt.Sprintf("] %d/%d", used, total)
}
