package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/smartfactory/sfdash/tui/styles"
)

// modalWidth picks a box width of half the screen within [lo, hi].
func modalWidth(screen, lo, hi int) int {
	return min(max(screen/2, lo), hi)
}

// renderModal draws content in a rounded box with title set into the top
// border, centered in a width x height area.
func renderModal(theme styles.Theme, sty *styles.Styles, title, content string, boxWidth, width, height int) string {
	inner := max(boxWidth-6, 10)
	body := sty.ModalBorder.BorderTop(false).Width(inner).Render(content)

	border := lipgloss.NewStyle().Foreground(theme.Base0D).Background(theme.Base00)
	label := " " + title + " "
	dashes := max(lipgloss.Width(body)-3-lipgloss.Width(label), 0)
	top := border.Render("╭─") + sty.ModalTitle.Render(label) + border.Render(strings.Repeat("─", dashes)+"╮")

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, top+"\n"+body)
}
