package query

import (
	"fmt"
	"math"

	"github.com/smartfactory/sfdash/internal/api"
	"github.com/smartfactory/sfdash/internal/logging"
	"github.com/smartfactory/sfdash/internal/metrics"
	"github.com/smartfactory/sfdash/internal/model"
)

// Bin is one histogram bucket.
type Bin struct {
	Label string  `json:"bin"`
	Lo    float64 `json:"-"`
	Hi    float64 `json:"-"`
	Count int     `json:"value"`
}

// Point is one timestamp of a time series with a value per series.
type Point struct {
	Timestamp string             `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// Category is one slice or bar of a categorical chart.
type Category struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ChartData is reshaped chart input. Shape tells which of Bins, Points or
// Categories is populated.
type ChartData struct {
	Shape      model.Shape
	Route      Route
	Bins       []Bin
	Points     []Point
	Series     []string
	Categories []Category
}

// Empty reports whether there is nothing to draw.
func (d ChartData) Empty() bool {
	switch d.Shape {
	case model.ShapeHistogram:
		return len(d.Bins) == 0
	case model.ShapeCategorical:
		return len(d.Categories) == 0
	default:
		return len(d.Points) == 0
	}
}

// Reshape converts rows into the chart shape of g.
func Reshape(g model.GraphType, rows []api.Row) ChartData {
	switch shape := g.Shape(); shape {
	case model.ShapeHistogram:
		var values []float64
		for _, r := range rows {
			if r.Value != nil {
				values = append(values, *r.Value)
			}
		}
		return ChartData{Shape: shape, Bins: Histogram(values)}
	case model.ShapeCategorical:
		return ChartData{Shape: shape, Categories: Categorical(rows)}
	default:
		points, series := TimeSeries(rows)
		return ChartData{Shape: model.ShapeTimeSeries, Points: points, Series: series}
	}
}

// Histogram bins values with Sturges' rule: k = ceil(log2(n)+1) bins of
// equal width over [min, max]. The maximum lands in the last bin. When all
// values are equal the width is zero and every value goes to the first bin.
// Non-finite values are dropped and logged. No values yields no bins.
func Histogram(values []float64) []Bin {
	values = finite(values)
	n := len(values)
	if n == 0 {
		return []Bin{}
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	k := int(math.Ceil(math.Log2(float64(n)) + 1))
	// Divide before subtracting so a range spanning most of float64 stays finite.
	width := hi/float64(k) - lo/float64(k)

	bins := make([]Bin, k)
	for i := range bins {
		bLo := lo + float64(i)*width
		bHi := bLo + width
		bins[i] = Bin{Label: fmt.Sprintf("%.2f-%.2f", bLo, bHi), Lo: bLo, Hi: bHi}
	}
	for _, v := range values {
		bins[binIndex(v, lo, width, k)].Count++
	}
	return bins
}

// binIndex places v in [0, k-1]. Rounding noise and NaN fall back to the
// nearest valid bin instead of indexing out of range.
func binIndex(v, lo, width float64, k int) int {
	if !(width > 0) {
		return 0
	}
	f := math.Floor(v/width - lo/width)
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f >= float64(k-1):
		return k - 1
	}
	return int(f)
}

func finite(values []float64) []float64 {
	out := values[:0:0]
	dropped := 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			dropped++
			continue
		}
		out = append(out, v)
	}
	if dropped > 0 {
		metrics.RowsDropped.Add(float64(dropped))
		logging.Warn().Int("count", dropped).Msg("dropping non-finite histogram values")
	}
	return out
}

// TimeSeries groups rows into one point per distinct timestamp in first-seen
// order. It also returns the series names in first-seen order. Rows without
// a timestamp, series or value are dropped and logged.
func TimeSeries(rows []api.Row) ([]Point, []string) {
	points := []Point{}
	index := make(map[string]int)
	var series []string
	seenSeries := make(map[string]bool)
	dropped := 0

	for _, r := range rows {
		if r.Timestamp == "" || r.Series == "" || r.Value == nil {
			dropped++
			logging.Warn().Str("row", r.String()).Msg("dropping incomplete time series row")
			continue
		}
		i, ok := index[r.Timestamp]
		if !ok {
			i = len(points)
			index[r.Timestamp] = i
			points = append(points, Point{Timestamp: r.Timestamp, Values: map[string]float64{}})
		}
		points[i].Values[r.Series] = *r.Value
		if !seenSeries[r.Series] {
			seenSeries[r.Series] = true
			series = append(series, r.Series)
		}
	}
	if dropped > 0 {
		metrics.RowsDropped.Add(float64(dropped))
	}
	return points, series
}

// Categorical maps each row to a category named after its series. Rows
// without a value are dropped and logged.
func Categorical(rows []api.Row) []Category {
	out := make([]Category, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		if r.Value == nil {
			dropped++
			logging.Warn().Str("row", r.String()).Msg("dropping category row without value")
			continue
		}
		name := r.Series
		if name == "" {
			name = r.Timestamp
		}
		out = append(out, Category{Name: name, Value: *r.Value})
	}
	if dropped > 0 {
		metrics.RowsDropped.Add(float64(dropped))
	}
	return out
}
