package query

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/smartfactory/sfdash/internal/api"
	"github.com/smartfactory/sfdash/internal/model"
)

// mockSeries stands in for machines when no catalog is loaded.
var mockSeries = []string{"Machine A", "Machine B", "Machine C"}

// Mock generates placeholder rows for when the backend is unreachable. The
// output depends only on its inputs, so repeated refreshes draw the same
// chart.
type Mock struct{}

// Rows returns one row per bucket of tf and machine.
func (Mock) Rows(kpi string, tf model.TimeFrame, machines []string) []api.Row {
	if len(machines) == 0 {
		machines = mockSeries
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(kpi))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	unit := BucketFor(tf)
	layout := time.DateOnly
	if unit == model.UnitHour {
		layout = time.RFC3339
	}
	ticks := Segments(tf.From, tf.To, unit)

	base := 10 + rng.Float64()*90
	rows := make([]api.Row, 0, len(ticks)*len(machines))
	for mi, m := range machines {
		offset := rng.Float64() * base * 0.3
		for ti, t := range ticks {
			wave := math.Sin(float64(ti)/3+float64(mi)) * base * 0.1
			noise := rng.NormFloat64() * base * 0.05
			v := math.Round((base+offset+wave+noise)*100) / 100
			rows = append(rows, api.Row{Timestamp: t.Format(layout), Series: m, Value: api.Float(max(v, 0))})
		}
	}
	return rows
}
