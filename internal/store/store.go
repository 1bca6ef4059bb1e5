// Package store is the client's data cache: the KPI catalog, the machine
// catalog and the user's dashboard tree, loaded from the backend with
// fallback to an offline mirror or the bundled snapshot.
//
// A Store is owned by the application and passed to whoever needs it. Reads
// never block on I/O; mutations update memory first, then write the tree
// through to the backend in the background and notify subscribers.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/logging"
	"github.com/smartfactory/sfdash/internal/metrics"
	"github.com/smartfactory/sfdash/internal/model"
	"github.com/smartfactory/sfdash/internal/snapshot"
)

var (
	// ErrFolderNotFound is returned when a dashboard is added to a folder id
	// that is not in the tree.
	ErrFolderNotFound = errors.New("folder not found")
	// ErrEmptyName is returned for folders and layouts without a name.
	ErrEmptyName = errors.New("name must not be empty")
	// ErrNotLayout is returned when AddDashboard is given a folder.
	ErrNotLayout = errors.New("only layouts can be added as dashboards")
)

// Backend is the subset of the REST client the store needs.
type Backend interface {
	Ping(ctx context.Context) error
	KPIs(ctx context.Context) ([]model.KPI, error)
	Machines(ctx context.Context) ([]model.Machine, error)
	DashboardSettings(ctx context.Context, userID string) (dashboard.Node, error)
	SaveDashboardSettings(ctx context.Context, userID string, tree dashboard.Node) error
}

// Snapshot is locally bundled data.
type Snapshot interface {
	KPIs() ([]model.KPI, error)
	Machines() ([]model.Machine, error)
	Tree() (dashboard.Node, error)
}

// Source tells where the current state was loaded from.
type Source int

const (
	SourceNone Source = iota
	SourceRemote
	SourceMirror
	SourceBundled
)

func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceMirror:
		return "mirror"
	case SourceBundled:
		return "bundled"
	default:
		return "none"
	}
}

// LoadReport describes a load. Warnings are the soft failures that were
// logged and replaced by empty data.
type LoadReport struct {
	Source   Source
	Warnings []error
}

func (r *LoadReport) warn(err error, msg string) {
	logging.Warn().Err(err).Msg(msg)
	r.Warnings = append(r.Warnings, fmt.Errorf("%s: %w", msg, err))
}

type state struct {
	kpis     []model.KPI
	machines []model.Machine
	tree     dashboard.Node
	source   Source
}

func emptyState() state {
	return state{tree: dashboard.NewRoot()}
}

// Subscription identifies a registered callback.
type Subscription struct {
	id uint64
}

// Store holds the cached catalogs and dashboard tree.
type Store struct {
	backend      Backend
	bundled      Snapshot
	mirror       *snapshot.Mirror
	writeTimeout time.Duration

	loadMu sync.Mutex

	mu    sync.RWMutex
	state state
	user  string

	subsMu  sync.Mutex
	subs    map[uint64]func()
	nextSub uint64

	pending sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithMirror persists remote loads to m and reads from it when offline.
func WithMirror(m *snapshot.Mirror) Option {
	return func(s *Store) { s.mirror = m }
}

// WithUser sets the logged-in user whose dashboards are loaded and saved.
func WithUser(userID string) Option {
	return func(s *Store) { s.user = userID }
}

// WithWriteTimeout bounds each background write-through. Default 30s.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) { s.writeTimeout = d }
}

// New creates an empty store. Call Initialize before reading.
func New(backend Backend, bundled Snapshot, opts ...Option) *Store {
	s := &Store{
		backend:      backend,
		bundled:      bundled,
		writeTimeout: 30 * time.Second,
		state:        emptyState(),
		subs:         make(map[uint64]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the store. It never fails: every error is logged, noted
// in the report and replaced by empty data.
func (s *Store) Initialize(ctx context.Context) LoadReport {
	s.loadMu.Lock()
	st, rep, err := s.safeLoad(ctx, s.User())
	if err != nil && st.tree.ID == "" {
		rep.warn(err, "initialize")
		st = emptyState()
	}
	s.swap(st)
	s.loadMu.Unlock()

	// Subscribers run outside loadMu and may reload themselves.
	s.notify()
	return rep
}

// Reload builds a fresh state and swaps it in only when the load completed.
// On error the previous state is kept.
func (s *Store) Reload(ctx context.Context) (LoadReport, error) {
	s.loadMu.Lock()
	st, rep, err := s.safeLoad(ctx, s.User())
	if err != nil {
		s.loadMu.Unlock()
		logging.Warn().Err(err).Msg("reload failed, keeping previous data")
		return rep, err
	}
	s.swap(st)
	s.loadMu.Unlock()

	s.notify()
	return rep, nil
}

func (s *Store) swap(st state) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	metrics.StoreLoads.WithLabelValues(st.source.String()).Inc()
}

func (s *Store) safeLoad(ctx context.Context, user string) (st state, rep LoadReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("load panicked: %v", r)
		}
	}()
	st, rep = s.load(ctx, user)
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return st, rep, err
}

func (s *Store) load(ctx context.Context, user string) (state, LoadReport) {
	var rep LoadReport
	if s.backend != nil {
		err := s.backend.Ping(ctx)
		if err == nil {
			return s.loadRemote(ctx, user, &rep), rep
		}
		rep.warn(err, "backend probe failed, loading offline data")
	}
	if st, ok := s.loadMirror(user, &rep); ok {
		return st, rep
	}
	return s.loadBundled(&rep), rep
}

func (s *Store) loadRemote(ctx context.Context, user string, rep *LoadReport) state {
	rep.Source = SourceRemote
	st := state{source: SourceRemote}

	kpis, err := s.backend.KPIs(ctx)
	if err != nil {
		rep.warn(err, "load KPI catalog")
	}
	st.kpis = kpis

	machines, err := s.backend.Machines(ctx)
	if err != nil {
		rep.warn(err, "load machine catalog")
	}
	st.machines = machines

	local := s.bundledTree(rep)
	st.tree = local
	if user != "" {
		server, err := s.backend.DashboardSettings(ctx, user)
		if err != nil {
			rep.warn(err, "load dashboard settings")
		} else {
			st.tree = dashboard.MergeTrees(local, server)
		}
	}

	s.saveMirror(user, st)
	return st
}

func (s *Store) saveMirror(user string, st state) {
	if s.mirror == nil {
		return
	}
	if len(st.kpis) > 0 {
		if err := s.mirror.SaveKPIs(st.kpis); err != nil {
			logging.Warn().Err(err).Msg("mirror KPI catalog")
		}
	}
	if len(st.machines) > 0 {
		if err := s.mirror.SaveMachines(st.machines); err != nil {
			logging.Warn().Err(err).Msg("mirror machine catalog")
		}
	}
	if user != "" {
		if err := s.mirror.SaveTree(user, st.tree); err != nil {
			logging.Warn().Err(err).Msg("mirror dashboard tree")
		}
	}
}

func (s *Store) loadMirror(user string, rep *LoadReport) (state, bool) {
	if s.mirror == nil {
		return state{}, false
	}
	kpis, err := s.mirror.KPIs()
	if err != nil {
		if !errors.Is(err, snapshot.ErrNotFound) {
			rep.warn(err, "read mirrored KPI catalog")
		}
		return state{}, false
	}
	machines, err := s.mirror.Machines()
	if err != nil {
		if !errors.Is(err, snapshot.ErrNotFound) {
			rep.warn(err, "read mirrored machine catalog")
		}
		return state{}, false
	}

	st := state{kpis: kpis, machines: machines, source: SourceMirror}
	found := false
	if user != "" {
		tree, err := s.mirror.Tree(user)
		switch {
		case err == nil:
			st.tree, found = tree, true
		case !errors.Is(err, snapshot.ErrNotFound):
			rep.warn(err, "read mirrored dashboard tree")
		}
	}
	if !found {
		st.tree = s.bundledTree(rep)
	}
	rep.Source = SourceMirror
	return st, true
}

func (s *Store) loadBundled(rep *LoadReport) state {
	rep.Source = SourceBundled
	st := state{tree: dashboard.NewRoot(), source: SourceBundled}
	if s.bundled == nil {
		return st
	}
	kpis, err := s.bundled.KPIs()
	if err != nil {
		rep.warn(err, "load bundled KPI catalog")
	}
	st.kpis = kpis

	machines, err := s.bundled.Machines()
	if err != nil {
		rep.warn(err, "load bundled machine catalog")
	}
	st.machines = machines
	st.tree = s.bundledTree(rep)
	return st
}

func (s *Store) bundledTree(rep *LoadReport) dashboard.Node {
	if s.bundled == nil {
		return dashboard.NewRoot()
	}
	tree, err := s.bundled.Tree()
	if err != nil {
		rep.warn(err, "load bundled dashboards")
		return dashboard.NewRoot()
	}
	return tree
}
