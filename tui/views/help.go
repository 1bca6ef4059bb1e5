package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/smartfactory/sfdash/tui/keys"
	"github.com/smartfactory/sfdash/tui/styles"
)

// HelpView renders a modal overlay showing all keyboard shortcuts.
type HelpView struct {
	theme   styles.Theme
	sty     *styles.Styles
	width   int
	height  int
	visible bool
}

// NewHelpView creates a new HelpView with the given theme.
func NewHelpView(theme styles.Theme) HelpView {
	return HelpView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}
}

// Toggle flips the help overlay visibility.
func (v *HelpView) Toggle() {
	v.visible = !v.visible
}

// IsVisible returns whether the help overlay is currently shown.
func (v HelpView) IsVisible() bool {
	return v.visible
}

// SetSize updates the available dimensions for the overlay.
func (v *HelpView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// View renders the help overlay as a centered modal box.
func (v HelpView) View() string {
	section := v.sty.Folder
	binding := func(k, desc string) string {
		return "  " + v.sty.FooterKey.Render(padRight(k, 14)) + "  " + v.sty.TableRow.Render(desc)
	}
	fromKeyMap := func(b key.Binding) string {
		h := b.Help()
		return binding(h.Key, h.Desc)
	}

	lines := []string{section.Render("Dashboard")}
	for _, b := range keys.DefaultKeyMap.Global() {
		lines = append(lines, fromKeyMap(b))
	}
	lines = append(lines,
		"",
		section.Render("Dashboard Tree"),
		binding("enter", "run layout / open folder"),
		binding("x", "stop layout"),
		binding("n / f", "new layout / folder here"),
		"",
		section.Render("Detail"),
		binding("left/right", "switch series"),
		binding("esc", "back"),
		"",
		v.sty.FormHint.Render("[?] close"),
	)

	return renderModal(v.theme, v.sty, "Keyboard Shortcuts", strings.Join(lines, "\n"),
		modalWidth(v.width, 44, 60), v.width, v.height)
}
