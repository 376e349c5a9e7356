package stats

import (
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

const sparkChars = " .:-=+*#%@"

const terminalWidthBackup = 80

// Sparkline renders a single-line ASCII sparkline for the values, scaled
// against the largest value.
func Sparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}
	maxVal := 0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	chars := []rune(sparkChars)
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if maxVal > 0 && v > 0 {
			idx = int(math.Round(float64(v) / float64(maxVal) * float64(len(chars)-1)))
			if idx == 0 {
				idx = 1 // nonzero values never render as blank
			}
		}
		b.WriteRune(chars[idx])
	}
	return b.String()
}

// TerminalWidth returns the current terminal width, or a fallback when
// stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
