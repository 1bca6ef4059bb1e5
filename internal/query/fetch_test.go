package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfactory/sfdash/internal/api"
	"github.com/smartfactory/sfdash/internal/model"
)

type fakeBackend struct {
	mu          sync.Mutex
	historical  []api.HistoricalQuery
	calcItems   []api.CalcItem
	predictions []api.PredictItem
	calcErr     error
	offline     bool
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (b *fakeBackend) Historical(_ context.Context, q api.HistoricalQuery) ([]api.Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.historical = append(b.historical, q)
	return []api.Row{
		{Timestamp: "2024-01-01", Series: "m1", Value: api.Float(1)},
		{Timestamp: "2024-01-02", Series: "m1", Value: api.Float(2)},
	}, nil
}

func (b *fakeBackend) Calculate(_ context.Context, items []api.CalcItem) ([]api.Row, error) {
	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		cur := b.maxInFlight.Load()
		if n <= cur || b.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calcErr != nil {
		return nil, b.calcErr
	}
	b.calcItems = append(b.calcItems, items...)
	return []api.Row{{Value: api.Float(float64(items[0].Start.Day()))}}, nil
}

func (b *fakeBackend) Predict(_ context.Context, items []api.PredictItem) ([]api.Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.predictions = append(b.predictions, items...)
	rows := make([]api.Row, len(items))
	for i, it := range items {
		rows[i] = api.Row{Timestamp: it.Date.Format(time.DateOnly), Series: it.Machine, Value: api.Float(1)}
	}
	return rows, nil
}

func (b *fakeBackend) Offline() bool { return b.offline }

func threeDays() model.TimeFrame {
	return model.TimeFrame{From: day(2024, 1, 1), To: day(2024, 1, 3)}
}

func TestFetchHistoricalRoute(t *testing.T) {
	b := &fakeBackend{}
	f := &Fetcher{Backend: b}

	data, err := f.Fetch(context.Background(), Request{KPI: "energy_cost_avg", TimeFrame: threeDays(), Graph: model.GraphLine, Machines: []string{"m1"}})
	require.NoError(t, err)

	require.Len(t, b.historical, 1)
	assert.Empty(t, b.calcItems)
	assert.Equal(t, "P1D", b.historical[0].GroupTime)
	assert.Equal(t, []string{"m1"}, b.historical[0].Machines)
	assert.Equal(t, RouteHistorical, data.Route)
	assert.Len(t, data.Points, 2)
}

func TestFetchCalculationRoute(t *testing.T) {
	b := &fakeBackend{}
	f := &Fetcher{Backend: b, Concurrency: 2}

	data, err := f.Fetch(context.Background(), Request{KPI: "energy_cost", TimeFrame: threeDays(), Graph: model.GraphLine, Machines: []string{"m1", "m2"}})
	require.NoError(t, err)

	assert.Empty(t, b.historical)
	assert.Len(t, b.calcItems, 6, "one request per machine and bucket")
	assert.LessOrEqual(t, b.maxInFlight.Load(), int32(2))

	assert.Equal(t, RouteCalculation, data.Route)
	require.Len(t, data.Points, 3)
	assert.Equal(t, "2024-01-01", data.Points[0].Timestamp)
	assert.Equal(t, map[string]float64{"m1": 1, "m2": 1}, data.Points[0].Values)
	assert.Equal(t, []string{"m1", "m2"}, data.Series)
}

func TestFetchCalculationUsesCatalogWhenUnfiltered(t *testing.T) {
	b := &fakeBackend{}
	f := &Fetcher{Backend: b, Machines: func() []string { return []string{"a", "b", "c"} }}

	_, err := f.Fetch(context.Background(), Request{KPI: "energy_cost", TimeFrame: threeDays(), Graph: model.GraphPie})
	require.NoError(t, err)
	assert.Len(t, b.calcItems, 9)
}

func TestFetchCalculationNoMachinesIsEmpty(t *testing.T) {
	f := &Fetcher{Backend: &fakeBackend{}}
	data, err := f.Fetch(context.Background(), Request{KPI: "energy_cost", TimeFrame: threeDays(), Graph: model.GraphLine})
	require.NoError(t, err)
	assert.True(t, data.Empty())
}

func TestFetchCalculationError(t *testing.T) {
	boom := errors.New("boom")
	f := &Fetcher{Backend: &fakeBackend{calcErr: boom}}
	_, err := f.Fetch(context.Background(), Request{KPI: "energy_cost", TimeFrame: threeDays(), Graph: model.GraphLine, Machines: []string{"m1"}})
	assert.ErrorIs(t, err, boom)
}

func TestFetchUnavailableFallsBackToMock(t *testing.T) {
	f := &Fetcher{Backend: &fakeBackend{calcErr: api.ErrUnavailable}}
	data, err := f.Fetch(context.Background(), Request{KPI: "energy_cost", TimeFrame: threeDays(), Graph: model.GraphLine, Machines: []string{"m1"}})
	require.NoError(t, err)
	assert.Equal(t, RouteMock, data.Route)
	assert.Len(t, data.Points, 3)
}

func TestFetchOfflineUsesMock(t *testing.T) {
	b := &fakeBackend{offline: true}
	f := &Fetcher{Backend: b}
	data, err := f.Fetch(context.Background(), Request{KPI: "energy_cost_avg", TimeFrame: threeDays(), Graph: model.GraphHist})
	require.NoError(t, err)
	assert.Empty(t, b.historical)
	assert.Equal(t, RouteMock, data.Route)
	assert.Equal(t, model.ShapeHistogram, data.Shape)
	assert.False(t, data.Empty())
}

func TestFetchOfflineIsEvaluatedPerRequest(t *testing.T) {
	b := &fakeBackend{}
	var offline atomic.Bool
	offline.Store(true)
	f := &Fetcher{Backend: b, Offline: offline.Load, Machines: func() []string { return []string{"m1"} }}
	req := Request{KPI: "energy_cost_avg", TimeFrame: threeDays(), Graph: model.GraphLine}

	data, err := f.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, RouteMock, data.Route)
	assert.True(t, f.UsesMock())

	offline.Store(false)
	data, err = f.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, RouteHistorical, data.Route)
	assert.False(t, f.UsesMock())
	assert.Len(t, b.historical, 1)
}

func TestFetchRejectsReversedFrame(t *testing.T) {
	f := &Fetcher{Backend: &fakeBackend{}}
	_, err := f.Fetch(context.Background(), Request{KPI: "x_avg", TimeFrame: model.TimeFrame{From: day(2024, 1, 3), To: day(2024, 1, 1)}})
	assert.ErrorIs(t, err, model.ErrEmptyTimeFrame)
}

func TestForecast(t *testing.T) {
	b := &fakeBackend{}
	f := &Fetcher{Backend: b, Now: func() time.Time { return time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC) }}

	data, err := f.Forecast(context.Background(), "energy_cost_avg", []string{"m1", "m2"}, 3)
	require.NoError(t, err)
	assert.Len(t, b.predictions, 6)
	assert.Equal(t, day(2024, 5, 11), b.predictions[0].Date)
	require.Len(t, data.Points, 3)
	assert.Equal(t, "2024-05-11", data.Points[0].Timestamp)
}

func TestMockIsDeterministic(t *testing.T) {
	var m Mock
	a := m.Rows("energy_cost", threeDays(), []string{"m1", "m2"})
	b := m.Rows("energy_cost", threeDays(), []string{"m1", "m2"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 6)

	other := m.Rows("power_consumption_avg", threeDays(), []string{"m1", "m2"})
	assert.NotEqual(t, a, other)

	for _, r := range m.Rows("x", threeDays(), nil) {
		assert.Contains(t, mockSeries, r.Series)
		assert.GreaterOrEqual(t, *r.Value, 0.0)
	}
}
