package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Bar is one labelled value of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
}

// RenderBars draws one row per bar: the label, a bar scaled against the
// largest absolute value, and the formatted value. Rows beyond maxRows are
// summarised in a final "+N more" line.
func RenderBars(bars []Bar, width, maxRows int, barStyle lipgloss.Style) string {
	if len(bars) == 0 {
		return ""
	}
	labelWidth := 0
	peak := 0.0
	for _, b := range bars {
		labelWidth = max(labelWidth, len([]rune(b.Label)))
		peak = max(peak, abs(b.Value))
	}
	labelWidth = min(labelWidth, max(width/3, 4))

	const valueWidth = 8
	barWidth := max(width-labelWidth-valueWidth-2, 1)

	shown := bars
	if maxRows > 0 && len(bars) > maxRows {
		shown = bars[:maxRows-1]
	}

	lines := make([]string, 0, len(shown)+1)
	for _, b := range shown {
		n := 0
		if peak > 0 {
			n = int(abs(b.Value) / peak * float64(barWidth))
		}
		if n == 0 && b.Value != 0 {
			n = 1
		}
		label := fmt.Sprintf("%-*s", labelWidth, truncate(b.Label, labelWidth))
		bar := barStyle.Render(strings.Repeat("█", n)) + strings.Repeat(" ", barWidth-n)
		lines = append(lines, fmt.Sprintf("%s %s %*s", label, bar, valueWidth, FormatValue(b.Value)))
	}
	if len(shown) < len(bars) {
		lines = append(lines, fmt.Sprintf("+%d more", len(bars)-len(shown)))
	}
	return strings.Join(lines, "\n")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
