package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderChartHeight(t *testing.T) {
	out := RenderChart([]float64{1, 2, 3, 4}, 40, 10, "oee", Axis{From: "01-01", To: "01-04"})
	lines := strings.Split(out, "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "oee") {
		t.Errorf("title row missing title: %q", lines[0])
	}
	last := lines[len(lines)-1]
	if !strings.Contains(last, "01-01") || !strings.HasSuffix(last, "01-04") {
		t.Errorf("axis row = %q", last)
	}
}

func TestRenderChartWithoutAxis(t *testing.T) {
	out := RenderChart(nil, 20, 5, "empty", Axis{})
	if n := len(strings.Split(out, "\n")); n != 5 {
		t.Errorf("expected 5 lines, got %d", n)
	}
}

func TestRenderChartTopRowHoldsMax(t *testing.T) {
	out := RenderChart([]float64{0, 10}, 20, 4, "", Axis{})
	lines := strings.Split(out, "\n")
	top := []rune(lines[1])
	if top[len(top)-1] != '█' {
		t.Errorf("expected the max value to fill the top row, got %q", lines[1])
	}
	if top[len(top)-2] != ' ' {
		t.Errorf("expected the zero value to leave the top row empty, got %q", lines[1])
	}
}

func TestRenderBars(t *testing.T) {
	bars := []Bar{{"m1", 10}, {"m2", 5}, {"m3", 0}}
	out := RenderBars(bars, 40, 0, lipgloss.NewStyle())
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(lines))
	}
	full := strings.Count(lines[0], "█")
	half := strings.Count(lines[1], "█")
	if full == 0 || half == 0 || half >= full {
		t.Errorf("bars not scaled: %d vs %d", full, half)
	}
	if strings.Contains(lines[2], "█") {
		t.Errorf("zero value should draw no bar: %q", lines[2])
	}
}

func TestRenderBarsOverflow(t *testing.T) {
	bars := []Bar{{"a", 1}, {"b", 2}, {"c", 3}, {"d", 4}}
	out := RenderBars(bars, 30, 3, lipgloss.NewStyle())
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(lines))
	}
	if lines[2] != "+2 more" {
		t.Errorf("overflow row = %q", lines[2])
	}
}
