package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/smartfactory/sfdash/internal/engine"
	"github.com/smartfactory/sfdash/tui/components"
	"github.com/smartfactory/sfdash/tui/keys"
	"github.com/smartfactory/sfdash/tui/styles"
)

// Column widths (minimums).
const (
	colName     = 28
	colGraph    = 12
	colLatest   = 16
	colRoute    = 12
	colStatus   = 8
	colSparkMin = 12
)

// DashboardView is the main table: one row per view of the running layout
// with its headline value and a sparkline of recent refreshes.
type DashboardView struct {
	theme    styles.Theme
	sty      *styles.Styles
	snapshot *engine.LayoutSnapshot
	cursor   int
	offset   int
	width    int
	height   int
}

// NewDashboardView creates a new DashboardView with the given theme.
func NewDashboardView(theme styles.Theme) DashboardView {
	return DashboardView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}
}

// Update moves the cursor.
func (v DashboardView) Update(msg tea.Msg) (DashboardView, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.DefaultKeyMap.Up):
			if v.cursor > 0 {
				v.cursor--
				v.ensureVisible()
			}
		case key.Matches(msg, keys.DefaultKeyMap.Down):
			if v.cursor < v.rowCount()-1 {
				v.cursor++
				v.ensureVisible()
			}
		}
	}
	return v, nil
}

// SetSnapshot replaces the data and clamps the cursor.
func (v *DashboardView) SetSnapshot(snap *engine.LayoutSnapshot) {
	v.snapshot = snap
	if n := v.rowCount(); v.cursor >= n {
		v.cursor = max(n-1, 0)
	}
	v.ensureVisible()
}

// SetSize updates the available dimensions for the view.
func (v *DashboardView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.ensureVisible()
}

// Selected returns the view under the cursor.
func (v DashboardView) Selected() (engine.ViewStats, bool) {
	if v.snapshot == nil || v.cursor >= len(v.snapshot.Views) {
		return engine.ViewStats{}, false
	}
	return v.snapshot.Views[v.cursor], true
}

// View renders the dashboard view.
func (v DashboardView) View() string {
	if v.snapshot == nil {
		return v.renderEmpty()
	}
	if len(v.snapshot.Views) == 0 {
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center,
			v.sty.FormHint.Render(v.snapshot.LayoutName+" has no views"))
	}
	return v.renderTable()
}

func (v DashboardView) rowCount() int {
	if v.snapshot == nil {
		return 0
	}
	return len(v.snapshot.Views)
}

func (v *DashboardView) ensureVisible() {
	visible := max(v.height-1, 1)
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+visible {
		v.offset = v.cursor - visible + 1
	}
}

// sparkWidth is what remains after the fixed columns.
func (v DashboardView) sparkWidth() int {
	return max(v.width-(colName+colGraph+colLatest+colRoute+colStatus), colSparkMin)
}

func (v DashboardView) renderTable() string {
	wSpark := v.sparkWidth()
	h := v.sty.TableHeader
	lines := []string{
		h.Render(padRight("View", colName)) +
			h.Render(padRight("Graph", colGraph)) +
			h.Render(padLeft("Latest", colLatest-2)+"  ") +
			h.Render(padRight("Route", colRoute)) +
			h.Render(padRight("Status", colStatus)) +
			h.Render(padRight("Trend", wSpark)),
	}

	visible := max(v.height-1, 1)
	end := min(v.offset+visible, len(v.snapshot.Views))
	for i := v.offset; i < end; i++ {
		lines = append(lines, v.renderRow(v.snapshot.Views[i], wSpark, i == v.cursor))
	}
	return strings.Join(lines, "\n")
}

func (v DashboardView) renderRow(vs engine.ViewStats, wSpark int, selected bool) string {
	sel := func(s lipgloss.Style) lipgloss.Style {
		if selected {
			return s.Background(v.theme.Base02)
		}
		return s
	}
	row := sel(v.sty.TableRow)

	latest := "-"
	if s, ok := vs.Latest(); ok {
		latest = components.FormatValue(s.Value)
		if vs.Unit != "" {
			latest += " " + vs.Unit
		}
	}

	status, statusStyle := "wait", v.sty.StatusWarn
	switch {
	case vs.Err != nil:
		status, statusStyle = "error", v.sty.StatusDown
	case !vs.LastRefresh.IsZero() && vs.Data.Empty():
		status, statusStyle = "empty", v.sty.StatusWarn
	case !vs.LastRefresh.IsZero():
		status, statusStyle = "ok", v.sty.StatusUp
	}

	route := ""
	if !vs.LastRefresh.IsZero() {
		route = vs.Data.Route.String()
	}

	spark := engine.Map(vs.History, func(s engine.Sample) float64 { return s.Value })

	return row.Render(padRight(truncate(vs.Name, colName-1), colName)) +
		row.Render(padRight(string(vs.Entry.GraphType), colGraph)) +
		sel(v.sty.Value).Render(padLeft(truncate(latest, colLatest-2), colLatest-2)) + row.Render("  ") +
		sel(v.sty.Route).Render(padRight(route, colRoute)) +
		sel(statusStyle).Render(padRight(status, colStatus)) +
		sel(v.sty.SparklineStyle).Render(components.Sparkline(spark, wSpark))
}

func (v DashboardView) renderEmpty() string {
	msgStyle := v.sty.FormHint.Align(lipgloss.Center)
	keyStyle := v.sty.FooterKey

	msg := lipgloss.JoinVertical(lipgloss.Center,
		"",
		msgStyle.Render("No dashboard running"),
		"",
		msgStyle.Render(fmt.Sprintf("Press %s to pick a dashboard", keyStyle.Render("[d]"))),
		msgStyle.Render(fmt.Sprintf("or %s to build a new one", keyStyle.Render("[n]"))),
		"",
	)
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, msg)
}

// padRight pads s with spaces on the right to the given width.
func padRight(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

// padLeft pads s with spaces on the left to the given width.
func padLeft(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return strings.Repeat(" ", width-len(r)) + s
}

// truncate shortens s to maxLen runes, adding an ellipsis if needed.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 {
		return ""
	}
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
