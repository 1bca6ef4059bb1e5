package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfactory/sfdash/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRouteFor(t *testing.T) {
	assert.Equal(t, RouteHistorical, RouteFor("energy_cost_avg"))
	assert.Equal(t, RouteHistorical, RouteFor("cycles_sum"))
	assert.Equal(t, RouteHistorical, RouteFor("temp_MAX"))
	assert.Equal(t, RouteCalculation, RouteFor("energy_cost"))
	assert.Equal(t, RouteCalculation, RouteFor("average"))
	assert.Equal(t, RouteCalculation, RouteFor("utilization_rate"))
}

func TestBucketFor(t *testing.T) {
	from := day(2024, 1, 1)
	tests := []struct {
		to   time.Time
		want model.Unit
	}{
		{from.Add(12 * time.Hour), model.UnitHour},
		{from.AddDate(0, 0, 1), model.UnitHour},
		{from.AddDate(0, 0, 2), model.UnitDay},
		{from.AddDate(0, 0, 31), model.UnitDay},
		{from.AddDate(0, 0, 32), model.UnitWeek},
		{from.AddDate(0, 0, 91), model.UnitWeek},
		{from.AddDate(0, 0, 92), model.UnitMonth},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketFor(model.TimeFrame{From: from, To: tt.to}), "to=%s", tt.to)
	}

	pinned := model.TimeFrame{From: from, To: from.AddDate(1, 0, 0)}.WithAggregation(model.UnitDay)
	assert.Equal(t, model.UnitDay, BucketFor(pinned))
}

func TestSegmentsDayInclusive(t *testing.T) {
	got := SegmentLabels(day(2024, 1, 1), day(2024, 1, 3), model.UnitDay)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, got)
}

func TestSegmentsWeekAndMonth(t *testing.T) {
	weeks := SegmentLabels(day(2024, 1, 1), day(2024, 1, 20), model.UnitWeek)
	assert.Equal(t, []string{"2024-01-01", "2024-01-08", "2024-01-15"}, weeks)

	months := SegmentLabels(day(2024, 1, 1), day(2024, 3, 1), model.UnitMonth)
	assert.Equal(t, []string{"2024-01-01", "2024-02-01", "2024-03-01"}, months)
}

func TestSegmentsHour(t *testing.T) {
	from := time.Date(2024, 1, 1, 5, 30, 0, 0, time.UTC)
	to := time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	ticks := Segments(from, to, model.UnitHour)
	require.Len(t, ticks, 4)
	assert.Equal(t, day(2024, 1, 1), ticks[0])
	assert.Equal(t, "2024-01-01T03:00:00Z", SegmentLabels(from, to, model.UnitHour)[3])
}

func TestSegmentsReversedFrame(t *testing.T) {
	assert.Empty(t, Segments(day(2024, 1, 3), day(2024, 1, 1), model.UnitDay))
}

func TestPlanCalculationOnePerMachineAndBucket(t *testing.T) {
	tf := model.TimeFrame{From: day(2024, 1, 1), To: day(2024, 1, 3)}
	plan := PlanCalculation("energy_cost", tf, []string{"m1", "m2"})
	require.Len(t, plan, 6)

	seen := map[string]bool{}
	for _, item := range plan {
		assert.Equal(t, "energy_cost", item.KPI)
		assert.Equal(t, item.Start.AddDate(0, 0, 1), item.End)
		key := item.Machine + "@" + item.Start.Format(time.DateOnly)
		assert.False(t, seen[key], "duplicate %s", key)
		seen[key] = true
	}
	assert.Equal(t, "m1", plan[0].Machine)
	assert.Equal(t, "m2", plan[3].Machine)
}
