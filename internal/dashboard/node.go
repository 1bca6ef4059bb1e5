// Package dashboard models the dashboard tree: folders that hold folders or
// layouts, where a layout is a named list of chart views.
package dashboard

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/smartfactory/sfdash/internal/model"
)

// RootID is the id of the synthetic folder at the top of every tree.
const RootID = "root"

// Kind discriminates the two node variants.
type Kind int

const (
	KindLayout Kind = iota
	KindFolder
)

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "layout"
}

// Node is either a folder (Children set) or a layout (Views set), as told by
// Kind. The field of the other variant is always nil.
type Node struct {
	Kind     Kind
	ID       string
	Name     string
	Views    []model.DashboardEntry
	Children []Node
}

// NewFolder builds a folder node.
func NewFolder(id, name string, children ...Node) Node {
	if children == nil {
		children = []Node{}
	}
	return Node{Kind: KindFolder, ID: id, Name: name, Children: children}
}

// NewLayout builds a layout node.
func NewLayout(id, name string, views ...model.DashboardEntry) Node {
	if views == nil {
		views = []model.DashboardEntry{}
	}
	return Node{Kind: KindLayout, ID: id, Name: name, Views: views}
}

// NewRoot wraps children in the synthetic root folder.
func NewRoot(children ...Node) Node {
	return NewFolder(RootID, "Dashboards", children...)
}

// IsFolder reports whether n is a folder.
func (n Node) IsFolder() bool { return n.Kind == KindFolder }

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	switch n.Kind {
	case KindFolder:
		children := make([]Node, len(n.Children))
		for i, c := range n.Children {
			children[i] = c.Clone()
		}
		return Node{Kind: KindFolder, ID: n.ID, Name: n.Name, Children: children}
	default:
		views := make([]model.DashboardEntry, len(n.Views))
		copy(views, n.Views)
		return Node{Kind: KindLayout, ID: n.ID, Name: n.Name, Views: views}
	}
}

// ChildIDs returns the ids of a folder's direct children.
func (n Node) ChildIDs() []string {
	ids := make([]string, len(n.Children))
	for i, c := range n.Children {
		ids[i] = c.ID
	}
	return ids
}

// IDs returns the id of n and of every descendant.
func IDs(n Node) []string {
	var ids []string
	Walk(n, func(c Node, _ int) bool {
		ids = append(ids, c.ID)
		return true
	})
	return ids
}

// Walk visits n and its descendants depth first. Returning false from fn
// stops the walk.
func Walk(n Node, fn func(n Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n Node, depth int, fn func(Node, int) bool) bool {
	if !fn(n, depth) {
		return false
	}
	if n.Kind == KindFolder {
		for _, c := range n.Children {
			if !walk(c, depth+1, fn) {
				return false
			}
		}
	}
	return true
}

// Find returns the first node with the given id in a depth-first walk.
func Find(root Node, id string) (Node, bool) {
	var found Node
	ok := false
	Walk(root, func(n Node, _ int) bool {
		if n.ID == id {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}

// Layouts returns every layout in the tree in depth-first order.
func Layouts(root Node) []Node {
	var out []Node
	Walk(root, func(n Node, _ int) bool {
		if n.Kind == KindLayout {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Slug derives an id from a display name.
func Slug(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	s := strings.TrimSuffix(b.String(), "_")
	if s == "" {
		return "dashboard"
	}
	return s
}

type folderJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Children []Node `json:"children"`
}

type layoutJSON struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Views []model.DashboardEntry `json:"views"`
}

// MarshalJSON writes the shape-based wire form: folders carry "children",
// layouts carry "views".
func (n Node) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case KindFolder:
		children := n.Children
		if children == nil {
			children = []Node{}
		}
		return json.Marshal(folderJSON{ID: n.ID, Name: n.Name, Children: children})
	default:
		views := n.Views
		if views == nil {
			views = []model.DashboardEntry{}
		}
		return json.Marshal(layoutJSON{ID: n.ID, Name: n.Name, Views: views})
	}
}

// UnmarshalJSON decodes with Decode.
func (n *Node) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*n = decoded
	return nil
}
