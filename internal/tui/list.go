package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// linesPerItem is the number of terminal lines each chat occupies.
const linesPerItem = 2

// renderList renders the left panel: the filtered chat list.
func (m model) renderList(width, height int) string {
	if len(m.items) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No chat exports")
	}

	var lines []string
	for i := m.listOffset; i < len(m.items); i++ {
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatItemLines(m.items[i], width, i == m.cursor)...)
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// formatItemLines formats one chat as two lines:
//
//	line 1: [>] MM-DD title
//	line 2:     summary (dimmed)
func formatItemLines(it Item, width int, selected bool) []string {
	date := it.Date
	if len(date) >= 10 {
		date = date[5:10] // MM-DD
	}
	if date == "" {
		date = "--/--"
	}

	title := strings.ReplaceAll(it.Title, "\n", " ")
	titleMax := width - 2 - 6 - 2
	if titleMax < 0 {
		titleMax = 0
	}
	if runewidth.StringWidth(title) > titleMax {
		title = runewidth.Truncate(title, titleMax, "")
	}

	line1 := date + " " + title
	if it.Status == "canceled" || it.Status == "error" {
		line1 += " " + styleStatusBad.Render("["+it.Status+"]")
	}
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	sub := strings.ReplaceAll(it.Sub, "\n", " ")
	sub = strings.ReplaceAll(sub, "\t", " ")
	subMax := width - 4
	if subMax < 0 {
		subMax = 0
	}
	if runewidth.StringWidth(sub) > subMax {
		sub = runewidth.Truncate(sub, subMax, "")
	}
	line2 := "    " + styleListDim.Render(sub)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll() {
	visibleItems := m.panelHeight() / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}

// wrapText hard-wraps text to maxWidth visible columns for the
// preview viewport, which does not wrap on its own.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = append(out, wrapLine(line, maxWidth)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, maxWidth int) []string {
	var result []string
	var cur strings.Builder
	visW := 0

	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 || len(result) == 0 {
		result = append(result, cur.String())
	}
	return result
}
