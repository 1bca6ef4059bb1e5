package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/smartfactory/sfdash/internal/engine"
	"github.com/smartfactory/sfdash/internal/model"
	"github.com/smartfactory/sfdash/internal/query"
	"github.com/smartfactory/sfdash/tui/components"
	"github.com/smartfactory/sfdash/tui/keys"
	"github.com/smartfactory/sfdash/tui/styles"
)

const infoPanelHeight = 9

// DetailView shows one view of a layout: an info panel on top and its chart
// below. Time series draw one series at a time; left and right switch.
type DetailView struct {
	theme  styles.Theme
	sty    *styles.Styles
	stats  *engine.ViewStats
	series int
	width  int
	height int
}

// NewDetailView creates a new DetailView with the given theme.
func NewDetailView(theme styles.Theme) DetailView {
	return DetailView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}
}

// SetStats replaces the view shown. The series selection is kept while the
// view index stays the same.
func (v *DetailView) SetStats(stats *engine.ViewStats) {
	if stats == nil || v.stats == nil || v.stats.Index != stats.Index {
		v.series = 0
	}
	v.stats = stats
	if stats != nil && v.series >= len(stats.Data.Series) {
		v.series = 0
	}
}

// SetSize updates the available dimensions for the view.
func (v *DetailView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Update handles keys. The third return value is true when the user wants
// to go back.
func (v DetailView) Update(msg tea.Msg) (DetailView, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.DefaultKeyMap.Escape):
		return v, nil, true
	case key.Matches(keyMsg, keys.DefaultKeyMap.Left):
		if n := v.seriesCount(); n > 0 {
			v.series = (v.series - 1 + n) % n
		}
	case key.Matches(keyMsg, keys.DefaultKeyMap.Right):
		if n := v.seriesCount(); n > 0 {
			v.series = (v.series + 1) % n
		}
	}
	return v, nil, false
}

func (v DetailView) seriesCount() int {
	if v.stats == nil || v.stats.Data.Shape != model.ShapeTimeSeries {
		return 0
	}
	return len(v.stats.Data.Series)
}

// View renders the detail view.
func (v DetailView) View() string {
	if v.stats == nil {
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center,
			v.sty.FormHint.Render("No view selected"))
	}
	chartHeight := max(v.height-infoPanelHeight-2, 6)
	return lipgloss.JoinVertical(lipgloss.Left,
		v.renderInfoPanel(),
		"",
		v.renderChart(max(v.width-4, 20), chartHeight),
		v.renderHelp(),
	)
}

func (v DetailView) renderInfoPanel() string {
	vs := v.stats
	label := v.sty.FormLabel.Width(16)
	value := v.sty.TableRow
	highlight := v.sty.HeaderTitle

	latest := "-"
	if s, ok := vs.Latest(); ok {
		latest = components.FormatValue(s.Value) + " " + vs.Unit
	}
	last := "never"
	if !vs.LastRefresh.IsZero() {
		last = vs.LastRefresh.Format(time.TimeOnly)
	}
	status := v.sty.StatusUp.Render("ok")
	if vs.Err != nil {
		status = v.sty.StatusDown.Render(vs.Err.Error())
	}

	row := func(l, r string) string { return "  " + label.Render(l) + r }
	rows := []string{
		"",
		row("View:", highlight.Render(vs.Name)),
		row("KPI:", value.Render(vs.Entry.KPI)),
		row("Graph:", value.Render(fmt.Sprintf("%s (%s)", vs.Entry.GraphType, vs.Data.Shape))),
		row("Route:", v.sty.Route.Render(query.RouteFor(vs.Entry.KPI).String())),
		row("Latest:", v.sty.Value.Render(strings.TrimSpace(latest))),
		row("Refreshed:", value.Render(last)),
		row("Status:", status),
	}
	return strings.Join(rows, "\n")
}

func (v DetailView) renderChart(width, height int) string {
	d := v.stats.Data
	if d.Empty() {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			v.sty.FormHint.Render("no data for this time frame"))
	}

	switch d.Shape {
	case model.ShapeCategorical:
		bars := make([]components.Bar, len(d.Categories))
		for i, c := range d.Categories {
			bars[i] = components.Bar{Label: c.Name, Value: c.Value}
		}
		return "  " + strings.ReplaceAll(components.RenderBars(bars, width, height, v.sty.ChartBar), "\n", "\n  ")
	case model.ShapeHistogram:
		bars := make([]components.Bar, len(d.Bins))
		for i, b := range d.Bins {
			bars[i] = components.Bar{Label: b.Label, Value: float64(b.Count)}
		}
		return "  " + strings.ReplaceAll(components.RenderBars(bars, width, height, v.sty.ChartBar), "\n", "\n  ")
	}

	name := d.Series[v.series]
	title := name
	if len(d.Series) > 1 {
		title = fmt.Sprintf("< %s (%d/%d) >", name, v.series+1, len(d.Series))
	}
	axis := components.Axis{
		From: shortTimestamp(d.Points[0].Timestamp),
		To:   shortTimestamp(d.Points[len(d.Points)-1].Timestamp),
	}
	chart := components.RenderChart(seriesValues(d.Points, name), width, height, title, axis)
	return v.sty.ChartLine.Render(chart)
}

func (v DetailView) renderHelp() string {
	hint := v.sty.FormHint
	k := v.sty.FooterKey
	s := fmt.Sprintf("  %s to go back", k.Render("[esc]"))
	if v.seriesCount() > 1 {
		s += fmt.Sprintf("  %s series", k.Render("[left/right]"))
	}
	return hint.Render(s)
}

// seriesValues extracts one series from points. Points without that series
// count as zero so the X axis stays aligned with the timestamps.
func seriesValues(points []query.Point, series string) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Values[series]
	}
	return out
}

// shortTimestamp trims a timestamp for axis labels.
func shortTimestamp(ts string) string {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		if t.Hour() == 0 && t.Minute() == 0 {
			return t.Format("Jan 02")
		}
		return t.Format("Jan 02 15:04")
	}
	if t, err := time.Parse(time.DateOnly, ts); err == nil {
		return t.Format("Jan 02")
	}
	return ts
}
