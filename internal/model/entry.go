package model

import (
	"fmt"

	"github.com/smartfactory/sfdash/internal/logging"
)

// GraphType is the chart kind a dashboard view renders.
type GraphType string

const (
	GraphLine       GraphType = "line"
	GraphArea       GraphType = "area"
	GraphBarV       GraphType = "barv"
	GraphBarH       GraphType = "barh"
	GraphPie        GraphType = "pie"
	GraphDonut      GraphType = "donut"
	GraphScatter    GraphType = "scatter"
	GraphHist       GraphType = "hist"
	GraphStackedBar GraphType = "stacked_bar"
)

// GraphTypes lists every valid graph type.
var GraphTypes = []GraphType{
	GraphLine, GraphArea, GraphBarV, GraphBarH, GraphPie,
	GraphDonut, GraphScatter, GraphHist, GraphStackedBar,
}

// Shape is the data layout a chart consumes.
type Shape int

const (
	ShapeTimeSeries Shape = iota
	ShapeHistogram
	ShapeCategorical
)

func (s Shape) String() string {
	switch s {
	case ShapeHistogram:
		return "histogram"
	case ShapeCategorical:
		return "categorical"
	default:
		return "timeseries"
	}
}

// Valid reports whether g is a known graph type.
func (g GraphType) Valid() bool {
	for _, t := range GraphTypes {
		if g == t {
			return true
		}
	}
	return false
}

// Shape maps the graph type to the data layout it renders.
func (g GraphType) Shape() Shape {
	switch g {
	case GraphHist:
		return ShapeHistogram
	case GraphPie, GraphBarV, GraphBarH, GraphDonut:
		return ShapeCategorical
	default:
		return ShapeTimeSeries
	}
}

// ParseGraphType validates a graph type name.
func ParseGraphType(s string) (GraphType, error) {
	g := GraphType(s)
	if !g.Valid() {
		return "", fmt.Errorf("unknown graph type %q", s)
	}
	return g, nil
}

// DashboardEntry is one chart in a dashboard layout.
type DashboardEntry struct {
	KPI       string    `json:"kpi"`
	GraphType GraphType `json:"graph_type"`
}

type entryWire struct {
	KPI       *string `json:"kpi" validate:"required,min=1"`
	GraphType *string `json:"graph_type" validate:"required"`
}

// DecodeEntry decodes a user-authored dashboard entry. Unknown graph types
// are rejected.
func DecodeEntry(data []byte) (DashboardEntry, error) {
	var w entryWire
	if err := DecodeInto("DashboardEntry", data, &w); err != nil {
		return DashboardEntry{}, err
	}
	g, err := ParseGraphType(*w.GraphType)
	if err != nil {
		return DashboardEntry{}, &DecodeError{Entity: "DashboardEntry", Field: "graph_type", Reason: err.Error()}
	}
	return DashboardEntry{KPI: *w.KPI, GraphType: g}, nil
}

// DecodeEntryLenient decodes an entry produced by the chat assistant. An
// unknown graph type falls back to line and is logged, never rejected.
func DecodeEntryLenient(data []byte) (DashboardEntry, error) {
	var w entryWire
	if err := DecodeInto("DashboardEntry", data, &w); err != nil {
		return DashboardEntry{}, err
	}
	g := GraphType(*w.GraphType)
	if !g.Valid() {
		logging.Warn().Str("kpi", *w.KPI).Str("graph_type", *w.GraphType).
			Msg("unknown graph type from assistant, using line")
		g = GraphLine
	}
	return DashboardEntry{KPI: *w.KPI, GraphType: g}, nil
}

// DecodeEntries decodes an array of user-authored entries.
func DecodeEntries(data []byte) ([]DashboardEntry, error) {
	return decodeList("DashboardEntry", data, DecodeEntry)
}
