package tui

import (
	"fmt"
	"time"

	"github.com/smartfactory/sfdash/internal/model"
)

// framePresets are the windows cycled with the time frame key, in days.
var framePresets = []int{1, 7, 30, 90, 365}

const defaultFrame = 1

// aggregations are cycled with the aggregation key. The empty unit lets the
// backend pick the bucket from the frame span.
var aggregations = []model.Unit{"", model.UnitHour, model.UnitDay, model.UnitWeek, model.UnitMonth}

// frameSelection is the time frame picked in the UI.
type frameSelection struct {
	preset int
	agg    int
}

func (f frameSelection) nextPreset() frameSelection {
	f.preset = (f.preset + 1) % len(framePresets)
	return f
}

func (f frameSelection) nextAggregation() frameSelection {
	f.agg = (f.agg + 1) % len(aggregations)
	return f
}

// frame resolves the selection against now.
func (f frameSelection) frame(now time.Time) model.TimeFrame {
	tf := model.LastDays(now, framePresets[f.preset])
	if u := aggregations[f.agg]; u != "" {
		tf = tf.WithAggregation(u)
	}
	return tf
}

// String is the status bar label.
func (f frameSelection) String() string {
	days := framePresets[f.preset]
	label := "last day"
	if days > 1 {
		label = fmt.Sprintf("last %d days", days)
	}
	agg := "auto"
	if u := aggregations[f.agg]; u != "" {
		agg = string(u)
	}
	return label + " / " + agg
}

// sameFrame compares frames by bounds and bucket.
func sameFrame(a, b model.TimeFrame) bool {
	if !a.From.Equal(b.From) || !a.To.Equal(b.To) {
		return false
	}
	switch {
	case a.Aggregation == nil && b.Aggregation == nil:
		return true
	case a.Aggregation == nil || b.Aggregation == nil:
		return false
	}
	return *a.Aggregation == *b.Aggregation
}
