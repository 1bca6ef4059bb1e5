package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/model"
	"github.com/smartfactory/sfdash/internal/snapshot"
)

type fakeBackend struct {
	mu        sync.Mutex
	pingErr   error
	kpis      []model.KPI
	kpiErr    error
	machines  []model.Machine
	tree      *dashboard.Node
	treeErr   error
	saveErr   error
	saved     []dashboard.Node
	panicKPIs bool
}

func (b *fakeBackend) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.pingErr
}

func (b *fakeBackend) KPIs(context.Context) ([]model.KPI, error) {
	if b.panicKPIs {
		panic("corrupt catalog")
	}
	return b.kpis, b.kpiErr
}

func (b *fakeBackend) Machines(context.Context) ([]model.Machine, error) {
	return b.machines, nil
}

func (b *fakeBackend) DashboardSettings(context.Context, string) (dashboard.Node, error) {
	if b.treeErr != nil {
		return dashboard.Node{}, b.treeErr
	}
	if b.tree == nil {
		return dashboard.NewRoot(), nil
	}
	return *b.tree, nil
}

func (b *fakeBackend) SaveDashboardSettings(_ context.Context, _ string, tree dashboard.Node) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saved = append(b.saved, tree)
	return b.saveErr
}

func (b *fakeBackend) savedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.saved)
}

func remoteBackend() *fakeBackend {
	return &fakeBackend{
		kpis:     []model.KPI{{ID: "remote_kpi_avg", Name: "Remote Kpi (Avg)"}},
		machines: []model.Machine{{MachineID: "r1"}, {MachineID: "r2"}},
	}
}

func TestInitializeRemoteWithoutUser(t *testing.T) {
	s := New(remoteBackend(), snapshot.Embedded())
	rep := s.Initialize(context.Background())

	assert.Equal(t, SourceRemote, rep.Source)
	assert.Empty(t, rep.Warnings)
	assert.Equal(t, "remote_kpi_avg", s.KPIs()[0].ID)
	assert.Equal(t, []string{"r1", "r2"}, s.MachineIDs())

	bundled, err := snapshot.Embedded().Tree()
	require.NoError(t, err)
	assert.ElementsMatch(t, bundled.ChildIDs(), s.Dashboards().ChildIDs())
}

func TestInitializeMergesServerTree(t *testing.T) {
	server := dashboard.NewRoot(
		dashboard.NewLayout("utilization", "Server Utilization", model.DashboardEntry{KPI: "x", GraphType: model.GraphPie}),
		dashboard.NewLayout("mine", "Mine"),
	)
	b := remoteBackend()
	b.tree = &server

	s := New(b, snapshot.Embedded(), WithUser("u1"))
	rep := s.Initialize(context.Background())
	require.Empty(t, rep.Warnings)

	tree := s.Dashboards()
	assert.Contains(t, tree.ChildIDs(), "mine")
	assert.Contains(t, tree.ChildIDs(), "energy")

	util, ok := s.Layout("utilization")
	require.True(t, ok)
	assert.Equal(t, "Server Utilization", util.Name)
	assert.Len(t, util.Views, 1)
}

func TestInitializeServerTreeErrorKeepsLocal(t *testing.T) {
	b := remoteBackend()
	b.treeErr = errors.New("404")
	s := New(b, snapshot.Embedded(), WithUser("u1"))
	rep := s.Initialize(context.Background())

	assert.Len(t, rep.Warnings, 1)
	_, ok := s.Layout("energy_overview")
	assert.True(t, ok)
}

func TestInitializeDecodeErrorIsEmpty(t *testing.T) {
	b := remoteBackend()
	b.kpis = nil
	b.kpiErr = &model.DecodeError{Entity: "KPI", Field: "unit", Reason: "missing"}
	s := New(b, snapshot.Embedded())
	rep := s.Initialize(context.Background())

	assert.Equal(t, SourceRemote, rep.Source)
	require.Len(t, rep.Warnings, 1)
	var de *model.DecodeError
	assert.True(t, errors.As(rep.Warnings[0], &de))
	assert.Empty(t, s.KPIs())
	assert.Len(t, s.Machines(), 2)
}

func TestInitializeOfflineUsesBundled(t *testing.T) {
	b := &fakeBackend{pingErr: errors.New("connection refused")}
	s := New(b, snapshot.Embedded())
	rep := s.Initialize(context.Background())

	assert.Equal(t, SourceBundled, rep.Source)
	assert.Equal(t, SourceBundled, s.Source())
	assert.Len(t, s.KPIs(), 13)
	assert.Len(t, s.Machines(), 6)
	assert.NotEmpty(t, s.Dashboards().Children)
}

func TestInitializeWithoutAnything(t *testing.T) {
	s := New(nil, nil)
	rep := s.Initialize(context.Background())
	assert.Equal(t, SourceBundled, rep.Source)
	assert.Equal(t, dashboard.RootID, s.Dashboards().ID)
	assert.Empty(t, s.KPIs())
}

func TestOfflineUsesMirrorOfLastRemoteLoad(t *testing.T) {
	mirror, err := snapshot.OpenInMemory()
	require.NoError(t, err)
	defer mirror.Close()

	server := dashboard.NewRoot(dashboard.NewLayout("mine", "Mine"))
	b := remoteBackend()
	b.tree = &server

	s := New(b, snapshot.Embedded(), WithMirror(mirror), WithUser("u1"))
	s.Initialize(context.Background())

	b.pingErr = errors.New("down")
	rep, err := s.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceMirror, rep.Source)
	assert.Equal(t, "remote_kpi_avg", s.KPIs()[0].ID)
	_, ok := s.Layout("mine")
	assert.True(t, ok)

	s.SetUser("someone-else")
	_, err = s.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceMirror, s.Source())
	_, ok = s.Layout("mine")
	assert.False(t, ok, "other users get the bundled tree")
}

func TestReloadCancelledKeepsPreviousState(t *testing.T) {
	s := New(remoteBackend(), snapshot.Embedded())
	s.Initialize(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	s.Subscribe(func() { calls++ })

	_, err := s.Reload(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, SourceRemote, s.Source())
	assert.Equal(t, "remote_kpi_avg", s.KPIs()[0].ID)
	assert.Zero(t, calls)
}

func TestSubscriberMayReload(t *testing.T) {
	s := New(remoteBackend(), snapshot.Embedded())
	s.Initialize(context.Background())

	var nested atomic.Bool
	reloaded := make(chan error, 1)
	s.Subscribe(func() {
		if nested.CompareAndSwap(false, true) {
			_, err := s.Reload(context.Background())
			reloaded <- err
		}
	})

	done := make(chan error, 1)
	go func() {
		_, err := s.Reload(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Reload deadlocked when a subscriber reloaded")
	}
	require.NoError(t, <-reloaded)
	assert.Equal(t, SourceRemote, s.Source())
}

func TestReloadPanicKeepsPreviousState(t *testing.T) {
	b := remoteBackend()
	s := New(b, snapshot.Embedded())
	s.Initialize(context.Background())

	b.panicKPIs = true
	_, err := s.Reload(context.Background())
	require.Error(t, err)
	assert.Len(t, s.KPIs(), 1)
	assert.Len(t, s.Machines(), 2)
}

func TestInitializePanicLeavesValidState(t *testing.T) {
	b := remoteBackend()
	b.panicKPIs = true
	s := New(b, snapshot.Embedded())
	rep := s.Initialize(context.Background())
	assert.NotEmpty(t, rep.Warnings)
	assert.Equal(t, dashboard.RootID, s.Dashboards().ID)
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := New(remoteBackend(), snapshot.Embedded())
	s.Initialize(context.Background())

	kpis := s.KPIs()
	kpis[0].ID = "changed"
	assert.Equal(t, "remote_kpi_avg", s.KPIs()[0].ID)

	tree := s.Dashboards()
	tree.Children = nil
	assert.NotEmpty(t, s.Dashboards().Children)

	k, ok := s.KPI("remote_kpi_avg")
	require.True(t, ok)
	assert.Equal(t, "Remote Kpi (Avg)", k.Name)
	_, ok = s.KPI("nope")
	assert.False(t, ok)

	_, ok = s.Layout("energy")
	assert.False(t, ok, "folders are not layouts")
}
