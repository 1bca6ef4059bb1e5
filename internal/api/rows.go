package api

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/smartfactory/sfdash/internal/model"
)

// Row is one record of a tabular response. Fields the server left out are
// zero (Timestamp, Series) or nil (Value); reshaping decides what to do with
// incomplete rows.
type Row struct {
	Timestamp string
	Series    string
	Value     *float64
}

var (
	timestampKeys = []string{"time", "timestamp", "Date_Start", "Date_prediction", "date"}
	seriesKeys    = []string{"Machine_Name", "machine", "name", "Machine_ID"}
	valueKeys     = []string{"Value", "value", "Predicted_value"}
)

// DecodeRows decodes a tabular response: either a bare array of objects or
// an object wrapping one under "data" or "value".
func DecodeRows(data []byte) ([]Row, error) {
	var objs []map[string]any
	if err := json.Unmarshal(data, &objs); err != nil {
		var wrapped struct {
			Data  []map[string]any `json:"data"`
			Value []map[string]any `json:"value"`
		}
		if werr := json.Unmarshal(data, &wrapped); werr != nil {
			return nil, &model.DecodeError{Entity: "rows", Reason: "expected an array of objects", Err: err}
		}
		objs = wrapped.Data
		if objs == nil {
			objs = wrapped.Value
		}
	}

	rows := make([]Row, 0, len(objs))
	for _, o := range objs {
		rows = append(rows, Row{
			Timestamp: firstString(o, timestampKeys),
			Series:    firstString(o, seriesKeys),
			Value:     firstNumber(o, valueKeys),
		})
	}
	return rows, nil
}

func firstString(o map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := o[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// firstNumber returns the first finite number under keys. Strings such as
// "Infinity" or "NaN" parse as floats but are not values.
func firstNumber(o map[string]any, keys []string) *float64 {
	for _, k := range keys {
		var f float64
		switch v := o[k].(type) {
		case float64:
			f = v
		case json.Number:
			n, err := v.Float64()
			if err != nil {
				continue
			}
			f = n
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				continue
			}
			f = n
		default:
			continue
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		return &f
	}
	return nil
}

// Float is a convenience for building rows in tests and generators.
func Float(v float64) *float64 { return &v }

func (r Row) String() string {
	if r.Value == nil {
		return fmt.Sprintf("%s %s <nil>", r.Timestamp, r.Series)
	}
	return fmt.Sprintf("%s %s %g", r.Timestamp, r.Series, *r.Value)
}
