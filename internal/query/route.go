// Package query turns a chart request (KPI, time frame, graph type, machine
// filter) into backend calls and reshapes the returned rows into the data
// each chart shape expects.
package query

import (
	"time"

	"github.com/smartfactory/sfdash/internal/api"
	"github.com/smartfactory/sfdash/internal/model"
)

// Route names the backend capability that serves a KPI.
type Route int

const (
	// RouteHistorical KPIs are pre-aggregated and bucketed server side.
	RouteHistorical Route = iota
	// RouteCalculation KPIs are computed per machine and bucket on demand.
	RouteCalculation
	// RouteMock marks data produced locally because the backend is down.
	RouteMock
)

func (r Route) String() string {
	switch r {
	case RouteHistorical:
		return "historical"
	case RouteCalculation:
		return "calculation"
	default:
		return "mock"
	}
}

// RouteFor picks the endpoint for kpiID from its final "_" segment.
func RouteFor(kpiID string) Route {
	if model.AggregationOf(kpiID) != "" {
		return RouteHistorical
	}
	return RouteCalculation
}

// BucketFor returns the bucket width for tf: an explicit aggregation wins,
// otherwise spans up to a day are hourly, up to 31 days daily, up to 91 days
// weekly and anything longer monthly.
func BucketFor(tf model.TimeFrame) model.Unit {
	if tf.Aggregation != nil {
		return *tf.Aggregation
	}
	const day = 24 * time.Hour
	switch span := tf.Span(); {
	case span <= day:
		return model.UnitHour
	case span <= 31*day:
		return model.UnitDay
	case span <= 91*day:
		return model.UnitWeek
	default:
		return model.UnitMonth
	}
}

// Segments returns the ascending bucket starts covering [from, to].
//
// Hourly segments start at midnight of from's date and run for to.Hour()+1
// ticks. Daily, weekly and monthly segments start at from and step by one
// unit while the tick is not after to, so both ends are included.
func Segments(from, to time.Time, unit model.Unit) []time.Time {
	if to.Before(from) {
		return nil
	}
	if unit == model.UnitHour {
		start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
		ticks := make([]time.Time, 0, to.Hour()+1)
		for i := 0; i <= to.Hour(); i++ {
			ticks = append(ticks, start.Add(time.Duration(i)*time.Hour))
		}
		return ticks
	}

	var ticks []time.Time
	for t := from; !t.After(to); t = unit.Step(t) {
		ticks = append(ticks, t)
	}
	return ticks
}

// SegmentLabels renders Segments as x-axis labels: RFC 3339 for hours, the
// bare date otherwise.
func SegmentLabels(from, to time.Time, unit model.Unit) []string {
	layout := time.DateOnly
	if unit == model.UnitHour {
		layout = time.RFC3339
	}
	ticks := Segments(from, to, unit)
	labels := make([]string, len(ticks))
	for i, t := range ticks {
		labels[i] = t.Format(layout)
	}
	return labels
}

// PlanCalculation splits a calculation-route request into one item per
// machine and bucket, machines outermost. Each bucket ends one unit after it
// starts.
func PlanCalculation(kpi string, tf model.TimeFrame, machines []string) []api.CalcItem {
	unit := BucketFor(tf)
	ticks := Segments(tf.From, tf.To, unit)
	items := make([]api.CalcItem, 0, len(machines)*len(ticks))
	for _, m := range machines {
		for _, start := range ticks {
			items = append(items, api.CalcItem{
				Start:   start,
				End:     unit.Step(start),
				Machine: m,
				KPI:     kpi,
			})
		}
	}
	return items
}
