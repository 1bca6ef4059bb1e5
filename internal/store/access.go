package store

import (
	"slices"

	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/model"
)

// KPIs returns a copy of the KPI catalog.
func (s *Store) KPIs() []model.KPI {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.kpis)
}

// Machines returns a copy of the machine catalog.
func (s *Store) Machines() []model.Machine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.machines)
}

// MachineIDs returns the ids of every catalog machine.
func (s *Store) MachineIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.state.machines))
	for i, m := range s.state.machines {
		ids[i] = m.MachineID
	}
	return ids
}

// Dashboards returns a copy of the dashboard tree.
func (s *Store) Dashboards() dashboard.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.tree.Clone()
}

// Source reports where the current data came from.
func (s *Store) Source() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.source
}

// KPI looks up one KPI by id.
func (s *Store) KPI(id string) (model.KPI, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.state.kpis {
		if k.ID == id {
			return k, true
		}
	}
	return model.KPI{}, false
}

// Layout looks up one layout by id.
func (s *Store) Layout(id string) (dashboard.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := dashboard.Find(s.state.tree, id)
	if !ok || n.Kind != dashboard.KindLayout {
		return dashboard.Node{}, false
	}
	return n.Clone(), true
}

// User returns the logged-in user id, or "".
func (s *Store) User() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetUser switches the user. The tree is not reloaded; call Reload.
func (s *Store) SetUser(userID string) {
	s.mu.Lock()
	s.user = userID
	s.mu.Unlock()
}
