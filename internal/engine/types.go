package engine

import (
	"time"

	"github.com/smartfactory/sfdash/internal/model"
	"github.com/smartfactory/sfdash/internal/query"
)

// EngineState represents the current state of a layout poller.
type EngineState int

const (
	EngineStopped EngineState = iota
	EngineRunning
	EngineError
)

func (s EngineState) String() string {
	switch s {
	case EngineRunning:
		return "running"
	case EngineError:
		return "error"
	default:
		return "stopped"
	}
}

// Sample is the headline value of a view at one refresh.
type Sample struct {
	At    time.Time
	Value float64
}

// ViewStats holds the latest chart data and a short value history for one
// view of a layout.
type ViewStats struct {
	Index   int
	Entry   model.DashboardEntry
	Name    string
	Unit    string
	Data    query.ChartData
	History *RingBuffer[Sample]
	Err     error
	// LastRefresh is zero until the first fetch lands.
	LastRefresh time.Time
}

// Latest returns the most recent headline value.
func (v ViewStats) Latest() (Sample, bool) {
	if v.History == nil {
		return Sample{}, false
	}
	return v.History.Last()
}

// LayoutSnapshot is a point-in-time copy of a poller's state.
type LayoutSnapshot struct {
	LayoutID     string
	LayoutName   string
	TimeFrame    model.TimeFrame
	Views        []ViewStats
	State        EngineState
	Generation   uint64
	LastRefresh  time.Time
	RefreshCount int
	ErrorCount   int
}

// EngineInfo is the summary shown in the layout switcher.
type EngineInfo struct {
	LayoutID    string
	LayoutName  string
	ViewCount   int
	State       EngineState
	LastRefresh time.Time
	ErrorCount  int
}

// EngineEvent is delivered to subscribers after each refresh.
type EngineEvent struct {
	LayoutID string
	Snapshot *LayoutSnapshot
}

// Scalar reduces chart data to one headline number: the mean across series
// of the last time-series point, the sum of categories, or the histogram
// sample count.
func Scalar(d query.ChartData) (float64, bool) {
	switch d.Shape {
	case model.ShapeHistogram:
		if len(d.Bins) == 0 {
			return 0, false
		}
		n := 0
		for _, b := range d.Bins {
			n += b.Count
		}
		return float64(n), true
	case model.ShapeCategorical:
		if len(d.Categories) == 0 {
			return 0, false
		}
		var sum float64
		for _, c := range d.Categories {
			sum += c.Value
		}
		return sum, true
	default:
		if len(d.Points) == 0 {
			return 0, false
		}
		last := d.Points[len(d.Points)-1]
		if len(last.Values) == 0 {
			return 0, false
		}
		var sum float64
		for _, v := range last.Values {
			sum += v
		}
		return sum / float64(len(last.Values)), true
	}
}
