package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/smartfactory/sfdash/internal/model"
	"github.com/smartfactory/sfdash/tui/keys"
	"github.com/smartfactory/sfdash/tui/styles"
)

// AlertsView lists the most recent alerts, newest first.
type AlertsView struct {
	theme  styles.Theme
	sty    *styles.Styles
	alerts []model.Alert
	err    error
	note   string
	offset int
	width  int
	height int
}

// NewAlertsView creates a new AlertsView with the given theme.
func NewAlertsView(theme styles.Theme) AlertsView {
	return AlertsView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}
}

// SetAlerts replaces the list. err is the last poll failure, if any.
func (v *AlertsView) SetAlerts(alerts []model.Alert, err error) {
	v.alerts = alerts
	v.err = err
	v.offset = min(v.offset, max(len(alerts)-1, 0))
}

// SetNote shows a line instead of the list, e.g. when no user is signed in.
func (v *AlertsView) SetNote(note string) { v.note = note }

// SetSize updates the available dimensions for the overlay.
func (v *AlertsView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Update scrolls the list. The second return value is true when the user
// closes the overlay.
func (v AlertsView) Update(msg tea.Msg) (AlertsView, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, false
	}
	km := keys.DefaultKeyMap
	switch {
	case key.Matches(keyMsg, km.Escape), key.Matches(keyMsg, km.Alerts):
		return v, true
	case key.Matches(keyMsg, km.Up):
		if v.offset > 0 {
			v.offset--
		}
	case key.Matches(keyMsg, km.Down):
		if v.offset < len(v.alerts)-1 {
			v.offset++
		}
	}
	return v, false
}

// View renders the alert list as a modal.
func (v AlertsView) View() string {
	var lines []string
	switch {
	case v.note != "":
		lines = append(lines, v.sty.FormHint.Render(v.note))
	case len(v.alerts) == 0:
		lines = append(lines, v.sty.FormHint.Render("No alerts."))
	default:
		visible := max(v.height-10, 3)
		end := min(v.offset+visible, len(v.alerts))
		for _, a := range v.alerts[v.offset:end] {
			lines = append(lines, v.renderAlert(a))
		}
		if end < len(v.alerts) {
			lines = append(lines, v.sty.FormHint.Render(fmt.Sprintf("+%d more", len(v.alerts)-end)))
		}
	}
	if v.err != nil {
		lines = append(lines, "", v.sty.FormError.Render("last poll failed: "+v.err.Error()))
	}
	lines = append(lines, "", v.sty.FormHint.Render("[esc] close"))

	return renderModal(v.theme, v.sty, "Alerts", strings.Join(lines, "\n"),
		modalWidth(v.width, 50, 90), v.width, v.height)
}

func (v AlertsView) renderAlert(a model.Alert) string {
	ts := "-"
	if !a.Timestamp.IsZero() {
		ts = a.Timestamp.Local().Format(time.DateTime)
	}
	line := v.sty.TableCellDim.Render(ts) + "  " +
		v.severityStyle(a.Severity).Render(padRight(a.Severity, 9)) +
		v.sty.TableRow.Render(a.Title)
	if a.MachineID != "" {
		line += v.sty.FormHint.Render("  [" + a.MachineID + "]")
	}
	return line
}

func (v AlertsView) severityStyle(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "critical", "high", "error":
		return v.sty.StatusDown
	case "warning", "medium", "warn":
		return v.sty.StatusWarn
	default:
		return v.sty.StatusUp
	}
}
