package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Makepad-fr/priotodo/internal/model"
)

const barWidth = 20

// Coverage counts distinct priorities in use and the highest one.
func Coverage(items []model.Item) (used, maxP int) {
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		seen[it.Priority] = struct{}{}
		if it.Priority > maxP {
			maxP = it.Priority
		}
	}
	return len(seen), maxP
}

// Header is the list title with the item count and priority coverage.
func (t Theme) Header(items []model.Item) string {
	title := t.Title.Render(fmt.Sprintf("Todo Items (%d)", len(items)))
	if len(items) == 0 {
		return title
	}
	used, maxP := Coverage(items)
	return title + "   " + t.Muted.Render("priorities ") + t.Accent.Render(t.CoverageBar(used, maxP, barWidth))
}

// ItemLine renders one todo as "P<priority>  <text>  #<id>".
func (t Theme) ItemLine(it model.Item) string {
	return fmt.Sprintf("%s  %s  %s",
		t.Priority.Render("P"+strconv.Itoa(it.Priority)),
		it.Text,
		t.Muted.Render("#"+strconv.Itoa(it.ID)),
	)
}

// List renders the whole collection, or the empty-state hint.
func (t Theme) List(items []model.Item) string {
	lines := []string{t.Header(items), ""}
	if len(items) == 0 {
		lines = append(lines, t.Muted.Render(EmptyHint))
		return t.Panel(lines)
	}
	for _, it := range items {
		lines = append(lines, t.ItemLine(it))
	}
	return t.Panel(lines)
}

// EmptyHint is shown when there is nothing to list.
const EmptyHint = "No todos yet. Add one above!"

// MissingLine renders the missing-priority report.
func (t Theme) MissingLine(missing []int) string {
	return t.Title.Render("Missing Priorities: ") + FormatMissing(missing)
}

// FormatMissing joins priorities with ", " or returns "None".
func FormatMissing(missing []int) string {
	if len(missing) == 0 {
		return "None"
	}
	parts := make([]string, len(missing))
	for i, p := range missing {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
