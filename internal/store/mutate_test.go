package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/model"
	"github.com/smartfactory/sfdash/internal/snapshot"
)

func initialized(t *testing.T, b *fakeBackend, opts ...Option) *Store {
	t.Helper()
	s := New(b, snapshot.Embedded(), opts...)
	s.Initialize(context.Background())
	return s
}

func TestAddDashboardFolderUniqueIDs(t *testing.T) {
	s := initialized(t, remoteBackend())

	a, err := s.AddDashboardFolder("Line 3")
	require.NoError(t, err)
	b, err := s.AddDashboardFolder("Line 3")
	require.NoError(t, err)
	c, err := s.AddDashboardFolder("line-3")
	require.NoError(t, err)

	assert.Equal(t, "line_3", a.ID)
	assert.Equal(t, "line_3_1", b.ID)
	assert.Equal(t, "line_3_2", c.ID)
	assert.Equal(t, dashboard.KindFolder, b.Kind)

	// Energy collides with the bundled folder id.
	e, err := s.AddDashboardFolder("Energy")
	require.NoError(t, err)
	assert.Equal(t, "energy_1", e.ID)

	_, err = s.AddDashboardFolder("  ")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestAddDashboardIDsUniqueAcrossFolders(t *testing.T) {
	s := initialized(t, remoteBackend())
	layout := dashboard.NewLayout("energy_overview", "My Overview", model.DashboardEntry{KPI: "k", GraphType: model.GraphLine})

	got, err := s.AddDashboard(layout, "production")
	require.NoError(t, err)
	assert.Equal(t, "energy_overview_1", got.ID)

	mine, ok := s.Layout(got.ID)
	require.True(t, ok)
	assert.Equal(t, "My Overview", mine.Name)

	bundled, ok := s.Layout("energy_overview")
	require.True(t, ok)
	assert.Equal(t, "Energy Overview", bundled.Name)

	// A folder may not take a layout's id either.
	f, err := s.AddDashboardFolder("Energy Costs")
	require.NoError(t, err)
	assert.Equal(t, "energy_costs_1", f.ID)
}

func TestAddDashboard(t *testing.T) {
	s := initialized(t, remoteBackend())
	layout := dashboard.NewLayout("energy_overview", "Energy Overview", model.DashboardEntry{KPI: "k", GraphType: model.GraphLine})

	got, err := s.AddDashboard(layout, "energy")
	require.NoError(t, err)
	assert.Equal(t, "energy_overview_1", got.ID)

	folder, ok := dashboard.Find(s.Dashboards(), "energy")
	require.True(t, ok)
	assert.Contains(t, folder.ChildIDs(), "energy_overview_1")

	root, err := s.AddDashboard(dashboard.NewLayout("", "My Layout"), "")
	require.NoError(t, err)
	assert.Equal(t, "my_layout", root.ID)
	assert.Contains(t, s.Dashboards().ChildIDs(), "my_layout")

	_, err = s.AddDashboard(layout, "missing")
	assert.ErrorIs(t, err, ErrFolderNotFound)

	_, err = s.AddDashboard(layout, "energy_overview")
	assert.ErrorIs(t, err, ErrFolderNotFound, "a layout is not a folder")

	_, err = s.AddDashboard(dashboard.NewFolder("f", "F"), "")
	assert.ErrorIs(t, err, ErrNotLayout)
}

func TestWriteThroughWithUser(t *testing.T) {
	b := remoteBackend()
	s := initialized(t, b, WithUser("u1"))

	_, err := s.AddDashboardFolder("New")
	require.NoError(t, err)
	s.Flush()

	require.Equal(t, 1, b.savedCount())
	assert.Contains(t, b.saved[0].ChildIDs(), "new")
}

func TestNoWriteThroughWithoutUser(t *testing.T) {
	b := remoteBackend()
	s := initialized(t, b)

	_, err := s.AddDashboardFolder("New")
	require.NoError(t, err)
	s.Flush()
	assert.Zero(t, b.savedCount())
}

func TestWriteThroughFailureIsSwallowed(t *testing.T) {
	b := remoteBackend()
	b.saveErr = errors.New("500")
	s := initialized(t, b, WithUser("u1"))

	f, err := s.AddDashboardFolder("New")
	require.NoError(t, err)
	s.Flush()

	_, ok := dashboard.Find(s.Dashboards(), f.ID)
	assert.True(t, ok, "local mutation survives a failed save")
}

func TestSubscribeUnsubscribe(t *testing.T) {
	s := initialized(t, remoteBackend())

	var a, b atomic.Int32
	subA := s.Subscribe(func() { a.Add(1) })
	s.Subscribe(func() { b.Add(1) })

	_, err := s.AddDashboardFolder("One")
	require.NoError(t, err)
	_, err = s.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), a.Load())
	assert.Equal(t, int32(2), b.Load())

	s.Unsubscribe(subA)
	s.Unsubscribe(subA)
	_, err = s.AddDashboard(dashboard.NewLayout("l", "L"), "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), a.Load())
	assert.Equal(t, int32(3), b.Load())
}

func TestCallbackMayReadStore(t *testing.T) {
	s := initialized(t, remoteBackend())
	var seen []string
	s.Subscribe(func() { seen = s.Dashboards().ChildIDs() })

	_, err := s.AddDashboardFolder("Fresh")
	require.NoError(t, err)
	assert.Contains(t, seen, "fresh")
}

func TestConcurrentAdds(t *testing.T) {
	b := remoteBackend()
	s := initialized(t, b, WithUser("u1"))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddDashboardFolder("Same")
		}()
	}
	wg.Wait()
	s.Flush()

	ids := map[string]bool{}
	for _, id := range s.Dashboards().ChildIDs() {
		assert.False(t, ids[id], "duplicate id %s", id)
		ids[id] = true
	}
	assert.True(t, ids["same"])
	assert.True(t, ids["same_19"])
	assert.Equal(t, 20, b.savedCount())
}
