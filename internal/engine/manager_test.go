package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/model"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(&fakeFetcher{}, Options{Interval: time.Hour})
	ctx := context.Background()

	costs := dashboard.NewLayout("energy_costs", "Energy Costs",
		model.DashboardEntry{KPI: "energy_cost_sum", GraphType: model.GraphArea})
	require.NoError(t, m.Start(ctx, testLayout(), frame(1)))
	require.NoError(t, m.Start(ctx, costs, frame(1)))
	assert.Error(t, m.Start(ctx, costs, frame(1)), "duplicate layout")

	infos := m.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "energy_costs", infos[0].LayoutID)
	assert.Equal(t, "energy_overview", infos[1].LayoutID)
	assert.Equal(t, 2, infos[1].ViewCount)

	ch, err := m.Subscribe("energy_costs")
	require.NoError(t, err)
	snap := waitFor(t, ch, func(s *LayoutSnapshot) bool { return s.RefreshCount >= 1 })
	assert.Equal(t, "Energy Costs", snap.LayoutName)

	got, err := m.Snapshot("energy_costs")
	require.NoError(t, err)
	assert.Len(t, got.Views, 1)

	require.NoError(t, m.Stop("energy_costs"))
	_, err = m.Snapshot("energy_costs")
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.ErrorIs(t, m.Stop("energy_costs"), ErrNotRunning)
	_, err = m.Subscribe("missing")
	assert.ErrorIs(t, err, ErrNotRunning)

	m.StopAll()
	assert.Empty(t, m.List())
}

func TestManagerRejectsFolder(t *testing.T) {
	m := NewManager(&fakeFetcher{}, Options{})
	err := m.Start(context.Background(), dashboard.NewFolder("energy", "Energy"), frame(1))
	assert.Error(t, err)
	assert.Empty(t, m.List())
}

func TestManagerStopsWithContext(t *testing.T) {
	m := NewManager(&fakeFetcher{}, Options{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx, testLayout(), frame(1)))
	p, err := m.Poller("energy_overview")
	require.NoError(t, err)

	cancel()
	select {
	case <-p.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("poller did not exit on context cancel")
	}
	m.StopAll()
}
