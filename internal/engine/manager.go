package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/model"
)

// ErrNotRunning is returned for layouts without a poller.
var ErrNotRunning = errors.New("no poller for layout")

// Manager coordinates Pollers, one per dashboard layout.
type Manager struct {
	mu      sync.RWMutex
	engines map[string]*Poller
	fetcher Fetcher
	opts    Options
}

// NewManager creates an empty Manager. Every poller it starts shares f and
// opts.
func NewManager(f Fetcher, opts Options) *Manager {
	return &Manager{
		engines: make(map[string]*Poller),
		fetcher: f,
		opts:    opts,
	}
}

// Start launches a Poller for the layout over tf. The poller stops when ctx
// is done or Stop is called.
func (m *Manager) Start(ctx context.Context, layout dashboard.Node, tf model.TimeFrame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.engines[layout.ID]; exists {
		return fmt.Errorf("layout %q already running", layout.ID)
	}
	p, err := NewPoller(layout, m.fetcher, tf, m.opts)
	if err != nil {
		return err
	}
	m.engines[layout.ID] = p
	go p.Run(ctx)
	return nil
}

// Stop halts the Poller for the layout, waits for it to exit and removes it.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	p, ok := m.engines[id]
	delete(m.engines, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w %q", ErrNotRunning, id)
	}
	p.Stop()
	<-p.Done()
	return nil
}

// Poller returns the running poller for a layout.
func (m *Manager) Poller(id string) (*Poller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.engines[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNotRunning, id)
	}
	return p, nil
}

// Snapshot returns a point-in-time snapshot for the layout.
func (m *Manager) Snapshot(id string) (*LayoutSnapshot, error) {
	p, err := m.Poller(id)
	if err != nil {
		return nil, err
	}
	return p.Snapshot(), nil
}

// Subscribe returns a channel that receives events for the layout.
func (m *Manager) Subscribe(id string) (<-chan EngineEvent, error) {
	p, err := m.Poller(id)
	if err != nil {
		return nil, err
	}
	return p.Subscribe(), nil
}

// List returns summary info for all running pollers, ordered by layout id.
func (m *Manager) List() []EngineInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]EngineInfo, 0, len(m.engines))
	for _, p := range m.engines {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].LayoutID < infos[j].LayoutID })
	return infos
}

// StopAll halts every poller and waits for them to exit.
func (m *Manager) StopAll() {
	m.mu.Lock()
	pollers := make([]*Poller, 0, len(m.engines))
	for id, p := range m.engines {
		pollers = append(pollers, p)
		delete(m.engines, id)
	}
	m.mu.Unlock()

	for _, p := range pollers {
		p.Stop()
	}
	for _, p := range pollers {
		<-p.Done()
	}
}
