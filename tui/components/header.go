package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/smartfactory/sfdash/tui/styles"
)

// HeaderInfo is what the top bar shows.
type HeaderInfo struct {
	Layout  string
	Live    bool
	Offline bool
	Source  string
	User    string
	Running int
	Version string
}

// RenderHeader renders the top bar: app name, layout name, live state,
// data source, signed-in user and running layout count.
func RenderHeader(theme styles.Theme, h HeaderInfo, width int) string {
	bg := theme.Base01
	seg := func(fg lipgloss.Color, s string) string {
		return lipgloss.NewStyle().Foreground(fg).Background(bg).Render(s)
	}

	title := lipgloss.NewStyle().Foreground(theme.Base0D).Background(bg).Bold(true).Render("sfdash")

	name := h.Layout
	if name == "" {
		name = "(no dashboard)"
	}

	status, statusColor := "STOPPED", theme.Base08
	switch {
	case h.Offline:
		status, statusColor = "OFFLINE", theme.Base0A
	case h.Live:
		status, statusColor = "LIVE", theme.Base0B
	}

	user := h.User
	if user == "" {
		user = "anonymous"
	}

	parts := []string{
		title,
		seg(theme.Base05, name),
		seg(statusColor, status),
		seg(theme.Base04, "source: "+h.Source),
		seg(theme.Base04, user),
		seg(theme.Base04, fmt.Sprintf("%d running", h.Running)),
		seg(theme.Base03, "v"+h.Version),
	}
	content := " " + strings.Join(parts, seg(theme.Base03, "  |  ")) + " "

	return lipgloss.NewStyle().
		Background(bg).
		Width(width).
		MaxWidth(width).
		Render(content)
}
