package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/smartfactory/sfdash/tui/styles"
)

// StatusInfo is what the two-line footer shows.
type StatusInfo struct {
	Interval    time.Duration
	LastRefresh time.Time
	OK          int
	Total       int
	TimeFrame   string
	Alert       string
	Message     string
}

// RenderStatusBar renders the refresh line and the key hint line.
func RenderStatusBar(theme styles.Theme, st StatusInfo, width int) string {
	bg := theme.Base01
	bgStyle := lipgloss.NewStyle().Background(bg)
	text := func(fg lipgloss.Color, s string) string {
		return lipgloss.NewStyle().Foreground(fg).Background(bg).Render(s)
	}
	sep := text(theme.Base03, " | ")

	last := "never"
	if !st.LastRefresh.IsZero() {
		last = st.LastRefresh.Format("15:04:05")
	}
	health := theme.Base0B
	if st.OK < st.Total {
		health = theme.Base0A
	}
	if st.Total > 0 && st.OK == 0 {
		health = theme.Base08
	}

	top := bgStyle.Render(" ") +
		text(theme.Base05, "every "+st.Interval.String()) + sep +
		text(theme.Base05, "last: "+last) + sep +
		text(health, fmt.Sprintf("%d/%d OK", st.OK, st.Total)) + sep +
		text(theme.Base0C, st.TimeFrame)
	if st.Alert != "" {
		top += sep + text(theme.Base08, "! "+st.Alert)
	}
	if st.Message != "" {
		top += sep + text(theme.Base0A, st.Message)
	}

	keyStyle := lipgloss.NewStyle().Foreground(theme.Base0D).Background(bg).Bold(true)
	spacer := bgStyle.Render("  ")
	hint := func(k, desc string) string {
		return keyStyle.Render(k) + text(theme.Base04, ":"+desc)
	}
	bottom := bgStyle.Render(" ") + strings.Join([]string{
		hint("enter", "detail"),
		hint("d", "dashboards"),
		hint("t", "frame"),
		hint("a", "agg"),
		hint("r", "refresh"),
		hint("s", "settings"),
		hint("?", "help"),
		hint("q", "quit"),
	}, spacer)

	return lipgloss.JoinVertical(lipgloss.Left, fill(top, width, bgStyle), fill(bottom, width, bgStyle))
}

func fill(s string, width int, bg lipgloss.Style) string {
	if w := lipgloss.Width(s); w < width {
		return s + bg.Render(strings.Repeat(" ", width-w))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
