// Package stats renders scheduling statistics for card sets.
package stats

import (
	"strings"
	"unicode/utf8"
)

// formatTable pads cells into aligned columns separated by single spaces.
// Columns listed in rightAlign are padded on the left (numeric columns).
func formatTable(headers []string, rows [][]string, rightAlign map[int]bool) []string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if w := utf8.RuneCountInString(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	render := func(row []string) string {
		var b strings.Builder
		for i, width := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if i > 0 {
				b.WriteByte(' ')
			}
			pad := width - utf8.RuneCountInString(cell)
			if pad < 0 {
				pad = 0
			}
			if rightAlign[i] {
				b.WriteString(strings.Repeat(" ", pad))
				b.WriteString(cell)
			} else {
				b.WriteString(cell)
				if i < len(widths)-1 {
					b.WriteString(strings.Repeat(" ", pad))
				}
			}
		}
		return b.String()
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, render(headers))
	for _, row := range rows {
		lines = append(lines, render(row))
	}
	return lines
}
