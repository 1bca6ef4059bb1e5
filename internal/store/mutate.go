package store

import (
	"context"
	"strings"

	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/logging"
	"github.com/smartfactory/sfdash/internal/metrics"
)

// AddDashboardFolder appends a folder to the root. Its id is derived from
// name and made unique across the whole tree.
func (s *Store) AddDashboardFolder(name string) (dashboard.Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return dashboard.Node{}, ErrEmptyName
	}

	s.mu.Lock()
	root := &s.state.tree
	id := dashboard.UniqueID(dashboard.Slug(name), dashboard.IDs(*root))
	folder := dashboard.NewFolder(id, name)
	root.Children = append(root.Children, folder)
	tree, user := root.Clone(), s.user
	s.mu.Unlock()

	s.writeThrough(user, tree)
	s.notify()
	return folder.Clone(), nil
}

// AddDashboard adds layout to the folder folderID (the root when folderID is
// empty or "root"). The layout keeps its id unless some node anywhere in the
// tree already uses it, in which case a suffixed id is assigned. Layouts are
// looked up by bare id, so ids must not repeat across folders. A layout
// without an id gets one from its name.
func (s *Store) AddDashboard(layout dashboard.Node, folderID string) (dashboard.Node, error) {
	if layout.Kind != dashboard.KindLayout {
		return dashboard.Node{}, ErrNotLayout
	}
	layout = layout.Clone()
	layout.Name = strings.TrimSpace(layout.Name)
	if layout.Name == "" {
		return dashboard.Node{}, ErrEmptyName
	}
	candidate := layout.ID
	if candidate == "" {
		candidate = dashboard.Slug(layout.Name)
	}
	if folderID == "" {
		folderID = dashboard.RootID
	}

	s.mu.Lock()
	folder := findFolder(&s.state.tree, folderID)
	if folder == nil {
		s.mu.Unlock()
		return dashboard.Node{}, ErrFolderNotFound
	}
	layout.ID = dashboard.UniqueID(candidate, dashboard.IDs(s.state.tree))
	folder.Children = append(folder.Children, layout)
	tree, user := s.state.tree.Clone(), s.user
	s.mu.Unlock()

	s.writeThrough(user, tree)
	s.notify()
	return layout.Clone(), nil
}

// findFolder returns a pointer into the tree to the folder with id.
func findFolder(n *dashboard.Node, id string) *dashboard.Node {
	if n.Kind != dashboard.KindFolder {
		return nil
	}
	if n.ID == id {
		return n
	}
	for i := range n.Children {
		if f := findFolder(&n.Children[i], id); f != nil {
			return f
		}
	}
	return nil
}

// writeThrough saves tree for user in the background. Failures are logged
// only; the in-memory tree already holds the change.
func (s *Store) writeThrough(user string, tree dashboard.Node) {
	if user == "" || s.backend == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()

		if err := s.backend.SaveDashboardSettings(ctx, user, tree); err != nil {
			metrics.StoreWriteThroughs.WithLabelValues("error").Inc()
			logging.Warn().Err(err).Str("user", user).Msg("dashboard write-through failed")
			return
		}
		metrics.StoreWriteThroughs.WithLabelValues("ok").Inc()
		if s.mirror != nil {
			if err := s.mirror.SaveTree(user, tree); err != nil {
				logging.Warn().Err(err).Msg("mirror dashboard tree")
			}
		}
	}()
}

// Flush waits for pending write-throughs.
func (s *Store) Flush() {
	s.pending.Wait()
}

// Subscribe registers fn to be called after every mutation and successful
// load. Callbacks run on the mutating goroutine, outside the store lock.
func (s *Store) Subscribe(fn func()) Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.nextSub++
	s.subs[s.nextSub] = fn
	return Subscription{id: s.nextSub}
}

// Unsubscribe removes a callback. Unknown subscriptions are ignored.
func (s *Store) Unsubscribe(sub Subscription) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	delete(s.subs, sub.id)
}

func (s *Store) notify() {
	s.subsMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
