package views

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/model"
	"github.com/smartfactory/sfdash/tui/keys"
	"github.com/smartfactory/sfdash/tui/styles"
)

// BuilderStep represents which step the wizard is on.
type BuilderStep int

const (
	StepName   BuilderStep = iota // Layout name
	StepViews                     // Add views
	StepReview                    // Review & save
)

// BuilderAction describes what the app should do after a builder update.
type BuilderAction int

const (
	// BuilderActionNone means continue in the builder.
	BuilderActionNone BuilderAction = iota
	// BuilderActionClose means the user cancelled.
	BuilderActionClose
	// BuilderActionSave means the layout is complete; see Layout and FolderID.
	BuilderActionSave
)

const (
	viewFieldKPI = iota
	viewFieldGraph
)

const maxSuggestions = 5

// BuilderView is a step-by-step wizard for creating a dashboard layout:
// a name, then a list of KPI views each with a graph type.
type BuilderView struct {
	theme  styles.Theme
	sty    *styles.Styles
	kpis   []model.KPI
	folder dashboard.Node
	step   BuilderStep
	width  int
	height int

	nameInput textinput.Model

	kpiInput   textinput.Model
	graphIndex int
	viewFocus  int
	adding     bool
	views      []model.DashboardEntry
	viewCursor int

	err string
}

// NewBuilderView creates a wizard that will add its layout to folder.
// kpis drives validation and suggestions; an empty catalog accepts any id.
func NewBuilderView(theme styles.Theme, kpis []model.KPI, folder dashboard.Node) BuilderView {
	b := BuilderView{
		theme:  theme,
		sty:    styles.NewStyles(theme),
		kpis:   kpis,
		folder: folder,
		step:   StepName,
		adding: true,
	}

	b.nameInput = textinput.New()
	b.nameInput.Placeholder = "dashboard name"
	b.nameInput.CharLimit = 64
	b.nameInput.Width = 40
	b.nameInput.Focus()

	b.kpiInput = textinput.New()
	b.kpiInput.Placeholder = "KPI id, e.g. energy_cost_avg"
	b.kpiInput.CharLimit = 128
	b.kpiInput.Width = 40

	return b
}

// SetSize updates the available dimensions for the builder view.
func (b *BuilderView) SetSize(width, height int) {
	b.width = width
	b.height = height
}

// Layout is the layout built so far. Its id is left empty for the store to
// derive from the name.
func (b BuilderView) Layout() dashboard.Node {
	return dashboard.NewLayout("", strings.TrimSpace(b.nameInput.Value()), slices.Clone(b.views)...)
}

// FolderID is the folder the layout goes into.
func (b BuilderView) FolderID() string { return b.folder.ID }

// SetError shows a message, for failures the app hits while saving.
func (b *BuilderView) SetError(msg string) { b.err = msg }

// Update handles messages for the builder wizard.
func (b BuilderView) Update(msg tea.Msg) (BuilderView, tea.Cmd, BuilderAction) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil, BuilderActionNone
	}
	switch b.step {
	case StepName:
		return b.updateStepName(keyMsg)
	case StepViews:
		return b.updateStepViews(keyMsg)
	case StepReview:
		return b.updateStepReview(keyMsg)
	}
	return b, nil, BuilderActionNone
}

// View renders the current step of the builder wizard.
func (b BuilderView) View() string {
	switch b.step {
	case StepViews:
		return b.viewStepViews()
	case StepReview:
		return b.viewStepReview()
	default:
		return b.viewStepName()
	}
}

func (b BuilderView) heading(step string) string {
	var s strings.Builder
	s.WriteString("\n  " + b.sty.HeaderTitle.Render("New Dashboard") + "  " + b.sty.FormHint.Render(step) + "\n\n")
	if b.err != "" {
		s.WriteString("  " + b.sty.FormError.Render(b.err) + "\n\n")
	}
	return s.String()
}

func (b BuilderView) hints(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, b.sty.FooterKey.Render(pairs[i])+" "+pairs[i+1])
	}
	return "  " + b.sty.FormHint.Render(strings.Join(parts, "  ")) + "\n"
}

// --- Step 1: Name ---

func (b BuilderView) updateStepName(msg tea.KeyMsg) (BuilderView, tea.Cmd, BuilderAction) {
	switch {
	case key.Matches(msg, keys.DefaultKeyMap.Escape):
		return b, nil, BuilderActionClose
	case key.Matches(msg, keys.DefaultKeyMap.Enter):
		if strings.TrimSpace(b.nameInput.Value()) == "" {
			b.err = "Dashboard name is required"
			return b, nil, BuilderActionNone
		}
		b.err = ""
		b.step = StepViews
		b.nameInput.Blur()
		b.startAdding()
		return b, nil, BuilderActionNone
	}
	var cmd tea.Cmd
	b.nameInput, cmd = b.nameInput.Update(msg)
	return b, cmd, BuilderActionNone
}

func (b BuilderView) viewStepName() string {
	var s strings.Builder
	s.WriteString(b.heading("Step 1 of 3"))
	s.WriteString("  " + b.sty.FormLabelActive.Render("> "+padRight("Name:", 18)) + b.nameInput.View() + "\n")
	s.WriteString("    " + b.sty.FormLabel.Render(padRight("Folder:", 18)) + b.sty.Folder.Render(b.folder.Name) + "\n\n")
	s.WriteString(b.hints("[enter]", "next", "[esc]", "cancel"))
	return s.String()
}

// --- Step 2: Views ---

func (b *BuilderView) startAdding() {
	b.adding = true
	b.viewFocus = viewFieldKPI
	b.kpiInput.SetValue("")
	b.kpiInput.Focus()
}

func (b *BuilderView) focusView(field int) {
	b.viewFocus = field
	if field == viewFieldKPI {
		b.kpiInput.Focus()
	} else {
		b.kpiInput.Blur()
	}
}

// commitView validates the form and appends the view.
func (b *BuilderView) commitView() bool {
	id := strings.TrimSpace(b.kpiInput.Value())
	if id == "" {
		b.err = "KPI id is required"
		return false
	}
	if len(b.kpis) > 0 && !slices.ContainsFunc(b.kpis, func(k model.KPI) bool { return k.ID == id }) {
		b.err = fmt.Sprintf("Unknown KPI %q", id)
		return false
	}
	b.views = append(b.views, model.DashboardEntry{KPI: id, GraphType: model.GraphTypes[b.graphIndex]})
	b.err = ""
	return true
}

func (b BuilderView) updateStepViews(msg tea.KeyMsg) (BuilderView, tea.Cmd, BuilderAction) {
	km := keys.DefaultKeyMap
	if b.adding {
		switch {
		case key.Matches(msg, km.Escape):
			b.err = ""
			b.kpiInput.Blur()
			if len(b.views) > 0 {
				b.adding = false
				return b, nil, BuilderActionNone
			}
			b.step = StepName
			b.nameInput.Focus()
			return b, nil, BuilderActionNone
		case msg.String() == "tab", msg.String() == "shift+tab":
			b.focusView(1 - b.viewFocus)
			return b, nil, BuilderActionNone
		case key.Matches(msg, km.Enter):
			if b.viewFocus == viewFieldKPI {
				b.focusView(viewFieldGraph)
				return b, nil, BuilderActionNone
			}
			if b.commitView() {
				b.adding = false
				b.kpiInput.Blur()
				b.viewCursor = len(b.views) - 1
			}
			return b, nil, BuilderActionNone
		case b.viewFocus == viewFieldGraph && key.Matches(msg, km.Left):
			b.graphIndex = (b.graphIndex - 1 + len(model.GraphTypes)) % len(model.GraphTypes)
			return b, nil, BuilderActionNone
		case b.viewFocus == viewFieldGraph && key.Matches(msg, km.Right):
			b.graphIndex = (b.graphIndex + 1) % len(model.GraphTypes)
			return b, nil, BuilderActionNone
		}
		if b.viewFocus != viewFieldKPI {
			return b, nil, BuilderActionNone
		}
		var cmd tea.Cmd
		b.kpiInput, cmd = b.kpiInput.Update(msg)
		return b, cmd, BuilderActionNone
	}

	switch {
	case key.Matches(msg, km.Escape):
		b.err = ""
		b.step = StepName
		b.nameInput.Focus()
	case key.Matches(msg, km.Up):
		if b.viewCursor > 0 {
			b.viewCursor--
		}
	case key.Matches(msg, km.Down):
		if b.viewCursor < len(b.views)-1 {
			b.viewCursor++
		}
	case msg.String() == "a":
		b.startAdding()
	case msg.String() == "x":
		if len(b.views) > 0 {
			b.views = slices.Delete(b.views, b.viewCursor, b.viewCursor+1)
			b.viewCursor = min(b.viewCursor, max(len(b.views)-1, 0))
			if len(b.views) == 0 {
				b.startAdding()
			}
		}
	case key.Matches(msg, km.Enter):
		b.err = ""
		b.step = StepReview
	}
	return b, nil, BuilderActionNone
}

func (b BuilderView) viewStepViews() string {
	var s strings.Builder
	s.WriteString(b.heading("Step 2 of 3 - Views"))
	s.WriteString(b.renderViewList())

	if !b.adding {
		s.WriteString("\n" + b.hints("[a]", "add", "[x]", "remove", "[enter]", "review", "[esc]", "back"))
		return s.String()
	}

	s.WriteString("\n")
	label := func(field int, text string) string {
		if field == b.viewFocus {
			return b.sty.FormLabelActive.Render("> " + padRight(text, 18))
		}
		return "  " + b.sty.FormLabel.Render(padRight(text, 18))
	}
	graph := fmt.Sprintf("< %s >", model.GraphTypes[b.graphIndex])
	s.WriteString("  " + label(viewFieldKPI, "KPI:") + b.kpiInput.View() + "\n")
	s.WriteString("  " + label(viewFieldGraph, "Graph:") + b.sty.Value.Render(graph) + "\n")

	if b.viewFocus == viewFieldKPI {
		for _, k := range matchKPIs(b.kpis, b.kpiInput.Value(), maxSuggestions) {
			s.WriteString("      " + b.sty.FormHint.Render(padRight(k.ID, 32)+k.Name) + "\n")
		}
	}
	s.WriteString("\n" + b.hints("[tab]", "field", "[left/right]", "graph", "[enter]", "add", "[esc]", "done"))
	return s.String()
}

func (b BuilderView) renderViewList() string {
	if len(b.views) == 0 {
		return "  " + b.sty.FormHint.Render("No views yet.") + "\n"
	}
	var s strings.Builder
	s.WriteString("  " + b.sty.TableHeader.Render(fmt.Sprintf("  %-4s%-36s%s", "#", "KPI", "Graph")) + "\n")
	for i, v := range b.views {
		row := fmt.Sprintf("  %-4d%-36s%s", i+1, truncate(v.KPI, 35), v.GraphType)
		if !b.adding && i == b.viewCursor {
			s.WriteString("  " + b.sty.TableRowSel.Render(row) + "\n")
			continue
		}
		s.WriteString("  " + b.sty.TableRow.Render(row) + "\n")
	}
	return s.String()
}

// matchKPIs returns up to limit catalog entries whose id contains query,
// prefix matches first.
func matchKPIs(kpis []model.KPI, query string, limit int) []model.KPI {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var prefix, contains []model.KPI
	for _, k := range kpis {
		id := strings.ToLower(k.ID)
		switch {
		case id == query:
			return nil
		case strings.HasPrefix(id, query):
			prefix = append(prefix, k)
		case strings.Contains(id, query):
			contains = append(contains, k)
		}
	}
	out := append(prefix, contains...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// --- Step 3: Review ---

func (b BuilderView) updateStepReview(msg tea.KeyMsg) (BuilderView, tea.Cmd, BuilderAction) {
	switch {
	case key.Matches(msg, keys.DefaultKeyMap.Escape):
		b.step = StepViews
		b.adding = false
		b.err = ""
	case key.Matches(msg, keys.DefaultKeyMap.Enter):
		return b, nil, BuilderActionSave
	}
	return b, nil, BuilderActionNone
}

func (b BuilderView) viewStepReview() string {
	var s strings.Builder
	s.WriteString(b.heading("Step 3 of 3 - Review"))

	field := func(label, value string) {
		s.WriteString("    " + b.sty.FormLabel.Render(padRight(label, 18)) + " " + b.sty.Value.Render(value) + "\n")
	}
	name := strings.TrimSpace(b.nameInput.Value())
	field("Name:", name)
	field("Folder:", b.folder.Name)
	field("Id (suggested):", dashboard.Slug(name))
	field("Views:", fmt.Sprintf("%d", len(b.views)))
	s.WriteString("\n" + b.renderViewList() + "\n")
	s.WriteString(b.hints("[enter]", "save", "[esc]", "back"))
	return s.String()
}
