package components

import (
	"fmt"
	"math"
	"strings"
)

// chartBlocks go from empty to full in eighths.
var chartBlocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

const chartLabelWidth = 8

// Axis labels the first and last sample of a chart.
type Axis struct {
	From string
	To   string
}

// RenderChart draws values (oldest first) as a filled block chart. The
// result is exactly height lines: a centered title, the plot rows with
// Y-axis labels, and an X-axis row when axis has labels.
func RenderChart(data []float64, width, height int, title string, axis Axis) string {
	width = max(width, chartLabelWidth+2)
	height = max(height, 4)

	plotWidth := width - chartLabelWidth
	plotHeight := height - 1
	showAxis := axis.From != "" || axis.To != ""
	if showAxis {
		plotHeight--
	}

	lines := make([]string, 0, height)
	lines = append(lines, centerText(title, width))

	if len(data) > plotWidth {
		data = data[len(data)-plotWidth:]
	}

	if len(data) == 0 {
		blank := strings.Repeat(" ", width)
		for range plotHeight {
			lines = append(lines, blank)
		}
	} else {
		lo, hi := bounds(data)
		if lo > 0 {
			lo = 0
		}
		if hi == lo {
			hi = lo + 1
		}
		spread := hi - lo
		pad := strings.Repeat(" ", plotWidth-len(data))

		for row := plotHeight - 1; row >= 0; row-- {
			cellLo := lo + spread*float64(row)/float64(plotHeight)
			cellHi := lo + spread*float64(row+1)/float64(plotHeight)

			label := fmt.Sprintf("%7s ", FormatValue(cellHi))
			if len(label) > chartLabelWidth {
				label = label[len(label)-chartLabelWidth:]
			}

			var sb strings.Builder
			sb.WriteString(label)
			sb.WriteString(pad)
			for _, v := range data {
				sb.WriteRune(cell(v, cellLo, cellHi))
			}
			lines = append(lines, sb.String())
		}
	}

	if showAxis {
		lines = append(lines, axisRow(axis, width))
	}
	return strings.Join(lines, "\n")
}

// cell picks the block for v within the value band [lo, hi).
func cell(v, lo, hi float64) rune {
	switch {
	case v <= lo:
		return ' '
	case v >= hi:
		return chartBlocks[8]
	}
	idx := int(math.Round((v - lo) / (hi - lo) * 8))
	return chartBlocks[min(max(idx, 0), 8)]
}

func axisRow(axis Axis, width int) string {
	inner := width - chartLabelWidth
	gap := inner - len(axis.From) - len(axis.To)
	if gap < 1 {
		return truncate(strings.Repeat(" ", chartLabelWidth)+axis.From, width)
	}
	return strings.Repeat(" ", chartLabelWidth) + axis.From + strings.Repeat(" ", gap) + axis.To
}

// centerText centers s within width, padding with spaces.
func centerText(s string, width int) string {
	if len(s) >= width {
		return truncate(s, width)
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(s)-pad)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
