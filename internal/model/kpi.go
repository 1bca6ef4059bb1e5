package model

import (
	"maps"
	"slices"

	"github.com/goccy/go-json"
)

// KPI is a named metric exposed by the backend.
type KPI struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Unit         string `json:"unit"`
	Forecastable bool   `json:"forecastable"`
}

// Aggregation returns the pre-aggregation suffix of the KPI id, or "".
func (k KPI) Aggregation() string { return AggregationOf(k.ID) }

type kpiWire struct {
	ID           *string `json:"id" validate:"required,min=1"`
	Type         *string `json:"type" validate:"required"`
	Name         *string `json:"name" validate:"required"`
	Description  *string `json:"description" validate:"required"`
	Unit         *string `json:"unit" validate:"required"`
	Forecastable *bool   `json:"forecastable" validate:"required"`
}

// DecodeKPI decodes a single flat KPI object.
func DecodeKPI(data []byte) (KPI, error) {
	var w kpiWire
	if err := DecodeInto("KPI", data, &w); err != nil {
		return KPI{}, err
	}
	return KPI{
		ID:           *w.ID,
		Type:         *w.Type,
		Name:         *w.Name,
		Description:  *w.Description,
		Unit:         *w.Unit,
		Forecastable: *w.Forecastable,
	}, nil
}

// DecodeKPIs decodes a JSON array of flat KPI objects.
func DecodeKPIs(data []byte) ([]KPI, error) {
	return decodeList("KPI", data, DecodeKPI)
}

type kpiLeafWire struct {
	Description  *string `json:"description" validate:"required"`
	Unit         *string `json:"unit" validate:"required"`
	Forecastable *bool   `json:"forecastable"`
}

// DecodeKPIGroups flattens the grouped catalog served by GET /kpi:
//
//	{"EnergyKPI": {"energy_cost_avg": {"description": "...", "unit": "EUR", "forecastable": true}}}
//
// Each leaf becomes one KPI whose Type is the group name split at camelCase
// boundaries and whose Name is derived from the id. Output is sorted by group
// then id.
func DecodeKPIGroups(data []byte) ([]KPI, error) {
	var groups map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, jsonError("KPI groups", err)
	}

	var out []KPI
	for _, group := range slices.Sorted(maps.Keys(groups)) {
		leaves := groups[group]
		for _, id := range slices.Sorted(maps.Keys(leaves)) {
			var w kpiLeafWire
			if err := DecodeInto("KPI "+id, leaves[id], &w); err != nil {
				return nil, err
			}
			out = append(out, KPI{
				ID:           id,
				Type:         SplitCamel(group),
				Name:         DisplayName(id),
				Description:  *w.Description,
				Unit:         *w.Unit,
				Forecastable: deref(w.Forecastable),
			})
		}
	}
	return out, nil
}

// EncodeKPIGroups is the inverse layout of DecodeKPIGroups, keyed by the raw
// group name. Used to write the offline mirror in the server's own format.
func EncodeKPIGroups(kpis []KPI) ([]byte, error) {
	groups := make(map[string]map[string]kpiLeafWire)
	for _, k := range kpis {
		group := compact(k.Type)
		if groups[group] == nil {
			groups[group] = make(map[string]kpiLeafWire)
		}
		desc, unit, fc := k.Description, k.Unit, k.Forecastable
		groups[group][k.ID] = kpiLeafWire{Description: &desc, Unit: &unit, Forecastable: &fc}
	}
	return json.Marshal(groups)
}
