package dashboard

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/smartfactory/sfdash/internal/model"
)

type nodeWire struct {
	ID       *string            `json:"id" validate:"required,min=1"`
	Name     *string            `json:"name" validate:"required"`
	Children *[]json.RawMessage `json:"children"`
	Views    *[]json.RawMessage `json:"views"`
}

// Decode parses a folder or layout, recursing into children. A node must
// carry exactly one of "children" or "views"; anything else fails the whole
// decode.
func Decode(data []byte) (Node, error) {
	var w nodeWire
	if err := model.DecodeInto("DashboardNode", data, &w); err != nil {
		return Node{}, err
	}

	switch {
	case w.Children != nil && w.Views != nil:
		return Node{}, &model.DecodeError{Entity: "DashboardNode", Field: "children", Reason: fmt.Sprintf("node %q has both children and views", *w.ID)}
	case w.Children != nil:
		children := make([]Node, 0, len(*w.Children))
		for i, raw := range *w.Children {
			child, err := Decode(raw)
			if err != nil {
				return Node{}, fmt.Errorf("folder %q child %d: %w", *w.ID, i, err)
			}
			children = append(children, child)
		}
		return Node{Kind: KindFolder, ID: *w.ID, Name: *w.Name, Children: children}, nil
	case w.Views != nil:
		views := make([]model.DashboardEntry, 0, len(*w.Views))
		for i, raw := range *w.Views {
			e, err := model.DecodeEntry(raw)
			if err != nil {
				return Node{}, fmt.Errorf("layout %q view %d: %w", *w.ID, i, err)
			}
			views = append(views, e)
		}
		return Node{Kind: KindLayout, ID: *w.ID, Name: *w.Name, Views: views}, nil
	default:
		return Node{}, &model.DecodeError{Entity: "DashboardNode", Field: "children", Reason: fmt.Sprintf("node %q has neither children nor views", *w.ID)}
	}
}

// DecodeList parses an array of nodes.
func DecodeList(data []byte) ([]Node, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &model.DecodeError{Entity: "DashboardNode list", Reason: "malformed JSON", Err: err}
	}
	out := make([]Node, 0, len(raws))
	for i, raw := range raws {
		n, err := Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// DecodeTree parses a tree payload. Servers and bundled files store either a
// root folder object or a bare array of top-level nodes; both come back as a
// root folder.
func DecodeTree(data []byte) (Node, error) {
	trimmed := firstNonSpace(data)
	if trimmed == '[' {
		children, err := DecodeList(data)
		if err != nil {
			return Node{}, err
		}
		return NewRoot(children...), nil
	}
	n, err := Decode(data)
	if err != nil {
		return Node{}, err
	}
	if n.Kind != KindFolder {
		return NewRoot(n), nil
	}
	if n.ID != RootID {
		return NewRoot(n), nil
	}
	return n, nil
}

// Encode writes n in the wire form Decode reads.
func Encode(n Node) ([]byte, error) {
	return json.Marshal(n)
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c
	}
	return 0
}
