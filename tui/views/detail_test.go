package views

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smartfactory/sfdash/internal/engine"
	"github.com/smartfactory/sfdash/internal/model"
	"github.com/smartfactory/sfdash/internal/query"
	"github.com/smartfactory/sfdash/tui/styles"
)

func timeSeriesStats() *engine.ViewStats {
	h := engine.NewRingBuffer[engine.Sample](10)
	h.Add(engine.Sample{Value: 4})
	return &engine.ViewStats{
		Index: 0,
		Entry: model.DashboardEntry{KPI: "energy_cost_avg", GraphType: model.GraphLine},
		Name:  "Energy cost",
		Unit:  "EUR",
		Data: query.ChartData{
			Shape:  model.ShapeTimeSeries,
			Series: []string{"m1", "m2"},
			Points: []query.Point{
				{Timestamp: "2024-03-01T00:00:00Z", Values: map[string]float64{"m1": 1, "m2": 3}},
				{Timestamp: "2024-03-02T00:00:00Z", Values: map[string]float64{"m1": 2}},
			},
		},
		History:     h,
		LastRefresh: time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC),
	}
}

func TestSeriesValues(t *testing.T) {
	vs := timeSeriesStats()
	got := seriesValues(vs.Data.Points, "m2")
	if len(got) != 2 || got[0] != 3 || got[1] != 0 {
		t.Errorf("seriesValues(m2) = %v, want [3 0]", got)
	}
}

func TestShortTimestamp(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2024-03-01T00:00:00Z", "Mar 01"},
		{"2024-03-01T13:30:00Z", "Mar 01 13:30"},
		{"2024-03-01", "Mar 01"},
		{"week 9", "week 9"},
	}
	for _, tt := range tests {
		if got := shortTimestamp(tt.in); got != tt.want {
			t.Errorf("shortTimestamp(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetailViewCyclesSeries(t *testing.T) {
	v := NewDetailView(styles.Resolve(styles.DefaultSlug))
	v.SetSize(100, 40)
	v.SetStats(timeSeriesStats())

	v, _, _ = v.Update(press("right"))
	if v.series != 1 {
		t.Fatalf("series = %d, want 1", v.series)
	}
	v, _, _ = v.Update(press("right"))
	if v.series != 0 {
		t.Errorf("series should wrap, got %d", v.series)
	}

	// Same view index keeps the selection; another view resets it.
	v, _, _ = v.Update(press("right"))
	v.SetStats(timeSeriesStats())
	if v.series != 1 {
		t.Errorf("series after refresh = %d, want 1", v.series)
	}
	other := timeSeriesStats()
	other.Index = 2
	v.SetStats(other)
	if v.series != 0 {
		t.Errorf("series after switching views = %d, want 0", v.series)
	}

	if _, _, back := v.Update(press("esc")); !back {
		t.Error("esc should go back")
	}
}

func TestDetailViewRender(t *testing.T) {
	v := NewDetailView(styles.Resolve(styles.DefaultSlug))
	v.SetSize(100, 40)
	if !strings.Contains(v.View(), "No view selected") {
		t.Error("expected placeholder without stats")
	}

	vs := timeSeriesStats()
	vs.Err = errors.New("backend down")
	v.SetStats(vs)
	out := v.View()
	for _, want := range []string{"Energy cost", "EUR", "backend down"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail view missing %q", want)
		}
	}
}

func TestDashboardViewRender(t *testing.T) {
	v := NewDashboardView(styles.Resolve(styles.DefaultSlug))
	v.SetSize(120, 20)
	if !strings.Contains(v.View(), "No dashboard running") {
		t.Error("expected the empty state")
	}

	ok := timeSeriesStats()
	pending := engine.ViewStats{
		Index: 1,
		Entry: model.DashboardEntry{KPI: "energy_cost_sum", GraphType: model.GraphPie},
		Name:  "Energy cost total",
	}
	v.SetSnapshot(&engine.LayoutSnapshot{
		LayoutID:   "energy_overview",
		LayoutName: "Energy Overview",
		Views:      []engine.ViewStats{*ok, pending},
	})
	out := v.View()
	for _, want := range []string{"Energy cost", "4.0 EUR", "ok", "wait"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard view missing %q", want)
		}
	}

	v, _ = v.Update(press("down"))
	if sel, ok := v.Selected(); !ok || sel.Index != 1 {
		t.Errorf("Selected() = %d, %v", sel.Index, ok)
	}
	v, _ = v.Update(press("down"))
	if sel, _ := v.Selected(); sel.Index != 1 {
		t.Error("cursor should stop at the last row")
	}

	v.SetSnapshot(&engine.LayoutSnapshot{LayoutName: "Empty"})
	if !strings.Contains(v.View(), "Empty has no views") {
		t.Error("expected the no-views message")
	}
}

func TestPromptView(t *testing.T) {
	p := NewPromptView(styles.Resolve(styles.DefaultSlug), "New Folder", "folder name")
	if _, _, action := p.Update(press("enter")); action != PromptNone {
		t.Errorf("enter on an empty prompt = %v", action)
	}
	p, _, _ = p.Update(press("  Quality "))
	if p.Value() != "Quality" {
		t.Errorf("Value() = %q", p.Value())
	}
	if _, _, action := p.Update(press("enter")); action != PromptSubmit {
		t.Errorf("enter = %v, want submit", action)
	}
	if _, _, action := p.Update(press("esc")); action != PromptCancel {
		t.Errorf("esc = %v, want cancel", action)
	}
}
