package dashboard

import "strconv"

// Merge reconciles locally bundled nodes with server-persisted ones, level by
// level:
//
//   - an id present on one side only is taken from that side unchanged;
//   - an id that is a folder on both sides becomes a folder with the server's
//     id and name whose children are merged recursively;
//   - any other collision (two layouts, or a folder and a layout) is won by
//     the server node outright.
//
// The order of the result is not part of the contract.
func Merge(local, server []Node) []Node {
	serverByID := make(map[string]Node, len(server))
	for _, n := range server {
		if _, dup := serverByID[n.ID]; !dup {
			serverByID[n.ID] = n
		}
	}

	seen := make(map[string]bool, len(local)+len(server))
	out := make([]Node, 0, len(local)+len(server))

	for _, l := range local {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true

		s, onServer := serverByID[l.ID]
		switch {
		case !onServer:
			out = append(out, l.Clone())
		case l.Kind == KindFolder && s.Kind == KindFolder:
			out = append(out, Node{
				Kind:     KindFolder,
				ID:       s.ID,
				Name:     s.Name,
				Children: Merge(l.Children, s.Children),
			})
		default:
			out = append(out, s.Clone())
		}
	}

	for _, s := range server {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s.Clone())
	}
	return out
}

// MergeTrees merges two root folders.
func MergeTrees(local, server Node) Node {
	return NewRoot(Merge(local.Children, server.Children)...)
}

// UniqueID returns candidate if it is not among existing, otherwise the
// first free candidate_1, candidate_2, ... The probe is linear and unbounded.
func UniqueID(candidate string, existing []string) string {
	taken := make(map[string]bool, len(existing))
	for _, id := range existing {
		taken[id] = true
	}
	if !taken[candidate] {
		return candidate
	}
	for i := 1; ; i++ {
		id := candidate + "_" + strconv.Itoa(i)
		if !taken[id] {
			return id
		}
	}
}
