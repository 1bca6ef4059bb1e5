package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/smartfactory/sfdash/tui/keys"
	"github.com/smartfactory/sfdash/tui/styles"
)

// PromptAction describes the outcome of a prompt key press.
type PromptAction int

const (
	PromptNone PromptAction = iota
	PromptCancel
	PromptSubmit
)

// PromptView asks for one line of text in a modal box.
type PromptView struct {
	theme  styles.Theme
	sty    *styles.Styles
	title  string
	input  textinput.Model
	width  int
	height int
}

// NewPromptView creates a focused prompt.
func NewPromptView(theme styles.Theme, title, placeholder string) PromptView {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 64
	in.Width = 36
	in.Focus()
	return PromptView{
		theme: theme,
		sty:   styles.NewStyles(theme),
		title: title,
		input: in,
	}
}

// SetSize updates the available dimensions for the overlay.
func (p *PromptView) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Value is the trimmed input.
func (p PromptView) Value() string { return strings.TrimSpace(p.input.Value()) }

// Update handles messages for the prompt. Enter with an empty value is
// ignored.
func (p PromptView) Update(msg tea.Msg) (PromptView, tea.Cmd, PromptAction) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, keys.DefaultKeyMap.Escape):
			return p, nil, PromptCancel
		case key.Matches(keyMsg, keys.DefaultKeyMap.Enter):
			if p.Value() == "" {
				return p, nil, PromptNone
			}
			return p, nil, PromptSubmit
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd, PromptNone
}

// View renders the prompt modal.
func (p PromptView) View() string {
	k := p.sty.FooterKey
	content := p.input.View() + "\n\n" +
		p.sty.FormHint.Render(k.Render("enter")+" ok  "+k.Render("esc")+" cancel")
	return renderModal(p.theme, p.sty, p.title, content, 48, p.width, p.height)
}
