package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/engine"
	"github.com/smartfactory/sfdash/tui/keys"
	"github.com/smartfactory/sfdash/tui/styles"
)

// TreeAction describes what the app should do after a tree key press.
type TreeAction int

const (
	// TreeNone means no action needed.
	TreeNone TreeAction = iota
	// TreeClose dismisses the tree.
	TreeClose
	// TreeRun starts (or switches to) the selected layout.
	TreeRun
	// TreeStop stops the selected layout's poller.
	TreeStop
	// TreeNew opens the builder in the selected folder.
	TreeNew
	// TreeNewFolder creates a folder inside the selected folder.
	TreeNewFolder
)

type treeItem struct {
	node     dashboard.Node
	depth    int
	parentID string
	running  bool
	info     engine.EngineInfo
}

// TreeView is a modal browser over the dashboard tree. Enter on a folder
// folds or unfolds it; enter on a layout runs it.
type TreeView struct {
	theme     styles.Theme
	sty       *styles.Styles
	root      dashboard.Node
	collapsed map[string]bool
	running   map[string]engine.EngineInfo
	items     []treeItem
	cursor    int
	width     int
	height    int
}

// NewTreeView creates a new TreeView with the given theme.
func NewTreeView(theme styles.Theme) TreeView {
	return TreeView{
		theme:     theme,
		sty:       styles.NewStyles(theme),
		collapsed: make(map[string]bool),
	}
}

// SetTree replaces the tree and the running layout list. Fold state and the
// cursor position survive as far as the new tree allows.
func (v *TreeView) SetTree(root dashboard.Node, running []engine.EngineInfo) {
	v.root = root
	v.running = make(map[string]engine.EngineInfo, len(running))
	for _, info := range running {
		v.running[info.LayoutID] = info
	}
	v.rebuild()
}

func (v *TreeView) rebuild() {
	var selected string
	if it, ok := v.selected(); ok {
		selected = it.node.ID
	}
	v.items = flattenTree(v.root, v.collapsed)
	for i := range v.items {
		if info, ok := v.running[v.items[i].node.ID]; ok && !v.items[i].node.IsFolder() {
			v.items[i].running = true
			v.items[i].info = info
		}
		if v.items[i].node.ID == selected {
			v.cursor = i
		}
	}
	v.cursor = min(v.cursor, max(len(v.items)-1, 0))
}

// flattenTree lists the visible nodes under root in display order. Children
// of collapsed folders are skipped.
func flattenTree(root dashboard.Node, collapsed map[string]bool) []treeItem {
	var out []treeItem
	var walk func(parent dashboard.Node, depth int)
	walk = func(parent dashboard.Node, depth int) {
		for _, c := range parent.Children {
			out = append(out, treeItem{node: c, depth: depth, parentID: parent.ID})
			if c.IsFolder() && !collapsed[c.ID] {
				walk(c, depth+1)
			}
		}
	}
	walk(root, 0)
	return out
}

// SetSize updates the available dimensions for the overlay.
func (v *TreeView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v TreeView) selected() (treeItem, bool) {
	if len(v.items) == 0 || v.cursor >= len(v.items) {
		return treeItem{}, false
	}
	return v.items[v.cursor], true
}

// SelectedLayout returns the layout under the cursor.
func (v TreeView) SelectedLayout() (dashboard.Node, bool) {
	it, ok := v.selected()
	if !ok || it.node.IsFolder() {
		return dashboard.Node{}, false
	}
	return it.node, true
}

// SelectedFolder is the folder new items go into: the selected folder
// itself, or the parent of the selected layout.
func (v TreeView) SelectedFolder() string {
	it, ok := v.selected()
	switch {
	case !ok:
		return dashboard.RootID
	case it.node.IsFolder():
		return it.node.ID
	default:
		return it.parentID
	}
}

// Update handles key messages for the tree overlay.
func (v TreeView) Update(msg tea.Msg) (TreeView, tea.Cmd, TreeAction) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil, TreeNone
	}
	km := keys.DefaultKeyMap
	switch {
	case key.Matches(keyMsg, km.Escape), key.Matches(keyMsg, km.Dashboards):
		return v, nil, TreeClose
	case key.Matches(keyMsg, km.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(keyMsg, km.Down):
		if v.cursor < len(v.items)-1 {
			v.cursor++
		}
	case key.Matches(keyMsg, km.Enter):
		it, ok := v.selected()
		if !ok {
			break
		}
		if it.node.IsFolder() {
			v.collapsed[it.node.ID] = !v.collapsed[it.node.ID]
			v.rebuild()
			break
		}
		return v, nil, TreeRun
	case keyMsg.String() == "x":
		if it, ok := v.selected(); ok && it.running {
			return v, nil, TreeStop
		}
	case key.Matches(keyMsg, km.New):
		return v, nil, TreeNew
	case key.Matches(keyMsg, km.Folder):
		return v, nil, TreeNewFolder
	}
	return v, nil, TreeNone
}

// View renders the tree as a centered modal box.
func (v TreeView) View() string {
	boxWidth := modalWidth(v.width, 40, 70)
	inner := boxWidth - 6

	var lines []string
	if len(v.items) == 0 {
		lines = append(lines,
			v.sty.FormHint.Render("No dashboards yet."),
			"",
			v.sty.FormHint.Render("Press [n] to build one or [f] for a folder."),
		)
	} else {
		visible := max(v.height-12, 5)
		start := 0
		if v.cursor >= visible {
			start = v.cursor - visible + 1
		}
		end := min(start+visible, len(v.items))
		for i := start; i < end; i++ {
			lines = append(lines, v.renderItem(v.items[i], i == v.cursor, inner))
		}
	}

	k := v.sty.FooterKey
	help := v.sty.FormHint.Render(fmt.Sprintf("%s:run/fold  %s:new  %s:folder  %s:stop  %s:close",
		k.Render("enter"), k.Render("n"), k.Render("f"), k.Render("x"), k.Render("esc")))

	content := lipgloss.JoinVertical(lipgloss.Left, strings.Join(lines, "\n"), "", help)
	return renderModal(v.theme, v.sty, "Dashboards", content, boxWidth, v.width, v.height)
}

func (v TreeView) renderItem(it treeItem, selected bool, width int) string {
	cursor := "  "
	if selected {
		cursor = v.sty.FooterKey.Render("> ")
	}
	indent := strings.Repeat("  ", it.depth)

	var name, status string
	statusWidth := 0
	if it.node.IsFolder() {
		marker := "▾ "
		if v.collapsed[it.node.ID] {
			marker = "▸ "
		}
		name = v.sty.Folder.Render(marker + it.node.Name)
	} else {
		style := v.sty.Layout
		if selected {
			style = style.Foreground(v.theme.Base06).Bold(true)
		}
		name = style.Render("  " + it.node.Name)
		plain := fmt.Sprintf("%d views", len(it.node.Views))
		status = v.sty.TableCellDim.Render(plain)
		if it.running {
			plain = "* " + it.info.State.String()
			st := v.sty.StatusUp
			if it.info.State == engine.EngineError {
				st = v.sty.StatusDown
			}
			status = st.Render(plain)
		}
		statusWidth = len(plain)
	}

	used := 2 + len(indent) + lipgloss.Width(name)
	pad := max(width-used-statusWidth, 2)
	return cursor + indent + name + strings.Repeat(" ", pad) + status
}
