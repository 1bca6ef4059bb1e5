package model

import (
	"errors"
	"fmt"
	"time"
)

// Unit is a time bucket width.
type Unit string

const (
	UnitHour  Unit = "hour"
	UnitDay   Unit = "day"
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
)

// ParseUnit validates a bucket unit name.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(s); u {
	case UnitHour, UnitDay, UnitWeek, UnitMonth:
		return u, nil
	}
	return "", fmt.Errorf("unknown aggregation %q (want hour, day, week or month)", s)
}

// ISODuration renders the unit as an ISO-8601 duration for group_time.
func (u Unit) ISODuration() string {
	switch u {
	case UnitHour:
		return "PT1H"
	case UnitWeek:
		return "P1W"
	case UnitMonth:
		return "P1M"
	default:
		return "P1D"
	}
}

// Step advances t by one unit.
func (u Unit) Step(t time.Time) time.Time {
	switch u {
	case UnitHour:
		return t.Add(time.Hour)
	case UnitWeek:
		return t.AddDate(0, 0, 7)
	case UnitMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// TimeFrame is the window a chart covers.
type TimeFrame struct {
	From        time.Time
	To          time.Time
	Aggregation *Unit
}

// ErrEmptyTimeFrame is returned for frames whose end precedes their start.
var ErrEmptyTimeFrame = errors.New("time frame ends before it starts")

// Validate checks the frame bounds.
func (tf TimeFrame) Validate() error {
	if tf.To.Before(tf.From) {
		return ErrEmptyTimeFrame
	}
	return nil
}

// Span is the frame length.
func (tf TimeFrame) Span() time.Duration { return tf.To.Sub(tf.From) }

// LastDays returns the frame covering the days before now's date, ending on
// now's date.
func LastDays(now time.Time, days int) TimeFrame {
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return TimeFrame{From: to.AddDate(0, 0, -days), To: to}
}

// WithAggregation returns a copy of tf pinned to unit u.
func (tf TimeFrame) WithAggregation(u Unit) TimeFrame {
	tf.Aggregation = &u
	return tf
}
