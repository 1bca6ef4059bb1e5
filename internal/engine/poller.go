package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/logging"
	"github.com/smartfactory/sfdash/internal/metrics"
	"github.com/smartfactory/sfdash/internal/model"
	"github.com/smartfactory/sfdash/internal/query"
)

const (
	DefaultInterval   = 30 * time.Second
	DefaultMaxHistory = 120
)

// Fetcher loads the chart data of one view.
type Fetcher interface {
	Fetch(ctx context.Context, req query.Request) (query.ChartData, error)
}

var _ Fetcher = (*query.Fetcher)(nil)

// Catalog resolves KPI metadata for view titles.
type Catalog interface {
	KPI(id string) (model.KPI, bool)
}

// Options tune a Poller. Zero values fall back to the defaults.
type Options struct {
	Interval   time.Duration
	MaxHistory int
	Machines   []string
	Catalog    Catalog
}

// Poller refreshes every view of one dashboard layout on a fixed interval.
type Poller struct {
	mu          sync.RWMutex
	layout      dashboard.Node
	fetcher     Fetcher
	opts        Options
	timeFrame   model.TimeFrame
	machines    []string
	views       []*ViewStats
	generation  uint64
	subscribers []chan EngineEvent
	state       EngineState
	refreshes   int
	errors      int
	lastRefresh time.Time

	kick     chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewPoller creates a Poller for a layout node.
func NewPoller(layout dashboard.Node, f Fetcher, tf model.TimeFrame, opts Options) (*Poller, error) {
	if layout.IsFolder() {
		return nil, fmt.Errorf("%q is a folder, not a layout", layout.ID)
	}
	if f == nil {
		return nil, fmt.Errorf("layout %q: no fetcher", layout.ID)
	}
	if err := tf.Validate(); err != nil {
		return nil, err
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	return &Poller{
		layout:    layout.Clone(),
		fetcher:   f,
		opts:      opts,
		timeFrame: tf,
		machines:  append([]string(nil), opts.Machines...),
		kick:      make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// initViewStats pre-populates empty stats for every view so the UI can draw
// placeholders before the first fetch returns.
func (p *Poller) initViewStats() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views = make([]*ViewStats, len(p.layout.Views))
	for i, entry := range p.layout.Views {
		vs := &ViewStats{
			Index:   i,
			Entry:   entry,
			Name:    model.DisplayName(entry.KPI),
			Data:    query.ChartData{Shape: entry.GraphType.Shape()},
			History: NewRingBuffer[Sample](p.opts.MaxHistory),
		}
		if p.opts.Catalog != nil {
			if k, ok := p.opts.Catalog.KPI(entry.KPI); ok {
				if k.Name != "" {
					vs.Name = k.Name
				}
				vs.Unit = k.Unit
			}
		}
		p.views[i] = vs
	}
	p.state = EngineRunning
	p.notify()
}

// Run refreshes until ctx is done or Stop is called. The first refresh runs
// in the background so subscribers see the placeholders immediately.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.done)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.initViewStats()

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.refresh(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	for {
		select {
		case <-ticker.C:
			p.refresh(ctx)
		case <-p.kick:
			p.refresh(ctx)
		case <-p.stopCh:
			p.setStopped()
			return
		case <-ctx.Done():
			p.setStopped()
			return
		}
	}
}

// refresh fetches every view once. Fetches run without the lock; results
// computed for a superseded generation are dropped.
func (p *Poller) refresh(ctx context.Context) {
	p.mu.RLock()
	gen := p.generation
	tf := p.timeFrame
	machines := p.machines
	entries := append([]model.DashboardEntry(nil), p.layout.Views...)
	p.mu.RUnlock()

	log := logging.Logger().With().Str("layout", p.layout.ID).Logger()
	stale := false
	for i, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		data, err := p.fetch(ctx, query.Request{
			KPI:       entry.KPI,
			TimeFrame: tf,
			Graph:     entry.GraphType,
			Machines:  machines,
		})
		if ctx.Err() != nil {
			return
		}
		if !p.apply(gen, i, data, err) {
			stale = true
			metrics.PollerRefreshes.WithLabelValues("stale").Inc()
			log.Debug().Str("kpi", entry.KPI).Uint64("generation", gen).Msg("dropping stale result")
			continue
		}
		if err != nil {
			metrics.PollerRefreshes.WithLabelValues("error").Inc()
			log.Warn().Err(err).Str("kpi", entry.KPI).Msg("view refresh failed")
			continue
		}
		metrics.PollerRefreshes.WithLabelValues("ok").Inc()
	}
	if stale {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen {
		return
	}
	p.refreshes++
	p.lastRefresh = time.Now()
	p.notify()
}

// fetch turns a panic in the fetcher into a view error so one bad response
// cannot take down the poll loop.
func (p *Poller) fetch(ctx context.Context, req query.Request) (data query.ChartData, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch %s: panic: %v", req.KPI, r)
		}
	}()
	return p.fetcher.Fetch(ctx, req)
}

// apply stores one view result. It reports false when gen is no longer
// current.
func (p *Poller) apply(gen uint64, idx int, data query.ChartData, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation || idx >= len(p.views) {
		return false
	}
	vs := p.views[idx]
	now := time.Now()
	vs.LastRefresh = now
	if err != nil {
		vs.Err = err
		p.errors++
		return true
	}
	vs.Err = nil
	vs.Data = data
	if v, ok := Scalar(data); ok {
		vs.History.Add(Sample{At: now, Value: v})
	}
	return true
}

// SetTimeFrame switches the window every view covers. In-flight results for
// the previous window are discarded and a refresh is queued.
func (p *Poller) SetTimeFrame(tf model.TimeFrame) error {
	if err := tf.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.timeFrame = tf
	p.bumpLocked()
	p.mu.Unlock()
	p.Refresh()
	return nil
}

// SetMachines narrows every view to the given machines. An empty filter means
// all machines.
func (p *Poller) SetMachines(machines []string) {
	p.mu.Lock()
	p.machines = append([]string(nil), machines...)
	p.bumpLocked()
	p.mu.Unlock()
	p.Refresh()
}

// bumpLocked starts a new generation and clears per-view history, which
// described the previous window.
func (p *Poller) bumpLocked() {
	p.generation++
	for _, vs := range p.views {
		vs.History.Reset()
		vs.Err = nil
	}
}

// Refresh queues an immediate refresh. Requests coalesce while one is
// pending.
func (p *Poller) Refresh() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// TimeFrame returns the current window.
func (p *Poller) TimeFrame() model.TimeFrame {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.timeFrame
}

// Snapshot returns a copy of the current state.
func (p *Poller) Snapshot() *LayoutSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

// snapshotLocked builds a LayoutSnapshot. The caller must hold p.mu.
func (p *Poller) snapshotLocked() *LayoutSnapshot {
	snap := &LayoutSnapshot{
		LayoutID:     p.layout.ID,
		LayoutName:   p.layout.Name,
		TimeFrame:    p.timeFrame,
		State:        p.state,
		Generation:   p.generation,
		LastRefresh:  p.lastRefresh,
		RefreshCount: p.refreshes,
		ErrorCount:   p.errors,
		Views:        make([]ViewStats, len(p.views)),
	}
	for i, vs := range p.views {
		snap.Views[i] = *vs
	}
	return snap
}

// Subscribe returns a channel that receives the latest snapshot after each
// refresh. Slow readers only ever see the newest event.
func (p *Poller) Subscribe() <-chan EngineEvent {
	ch := make(chan EngineEvent, 1)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// notify publishes the current snapshot. The caller must hold the write lock.
func (p *Poller) notify() {
	ev := EngineEvent{LayoutID: p.layout.ID, Snapshot: p.snapshotLocked()}
	for _, ch := range p.subscribers {
		select {
		case ch <- ev:
			continue
		default:
		}
		// replace the unread event
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// Info returns summary information about this poller.
func (p *Poller) Info() EngineInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	state := p.state
	if state == EngineRunning && p.refreshes > 0 && p.allFailedLocked() {
		state = EngineError
	}
	return EngineInfo{
		LayoutID:    p.layout.ID,
		LayoutName:  p.layout.Name,
		ViewCount:   len(p.layout.Views),
		State:       state,
		LastRefresh: p.lastRefresh,
		ErrorCount:  p.errors,
	}
}

func (p *Poller) allFailedLocked() bool {
	if len(p.views) == 0 {
		return false
	}
	for _, vs := range p.views {
		if vs.Err == nil {
			return false
		}
	}
	return true
}

func (p *Poller) setStopped() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = EngineStopped
	p.notify()
}

// Stop signals the refresh loop to exit. It is safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// Done is closed once Run has returned.
func (p *Poller) Done() <-chan struct{} { return p.done }
