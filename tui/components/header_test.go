package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/smartfactory/sfdash/tui/styles"
)

func TestRenderHeaderStatus(t *testing.T) {
	theme := styles.Resolve(styles.DefaultSlug)
	tests := []struct {
		name string
		info HeaderInfo
		want string
	}{
		{"live", HeaderInfo{Layout: "Line 1", Live: true}, "LIVE"},
		{"offline wins", HeaderInfo{Layout: "Line 1", Live: true, Offline: true}, "OFFLINE"},
		{"stopped", HeaderInfo{}, "STOPPED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderHeader(theme, tt.info, 160)
			if !strings.Contains(out, tt.want) {
				t.Errorf("header %q missing %q", out, tt.want)
			}
		})
	}
}

func TestRenderHeaderPlaceholders(t *testing.T) {
	out := RenderHeader(styles.Resolve(styles.DefaultSlug), HeaderInfo{}, 160)
	for _, want := range []string{"sfdash", "(no dashboard)", "anonymous"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q: %q", want, out)
		}
	}
}

func TestRenderStatusBar(t *testing.T) {
	st := StatusInfo{
		Interval:    30 * time.Second,
		LastRefresh: time.Date(2024, 1, 1, 12, 30, 5, 0, time.UTC),
		OK:          2,
		Total:       3,
		TimeFrame:   "last 7 days",
		Alert:       "spindle overheat",
	}
	out := RenderStatusBar(styles.Resolve(styles.DefaultSlug), st, 200)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, want := range []string{"every 30s", "12:30:05", "2/3 OK", "last 7 days", "spindle overheat"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("status line missing %q: %q", want, lines[0])
		}
	}
	if lipgloss.Width(lines[1]) != 200 {
		t.Errorf("key line width = %d, want 200", lipgloss.Width(lines[1]))
	}
}
