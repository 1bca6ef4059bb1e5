package model

import (
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-json"
)

// Machine is a production asset that KPIs are measured on.
type Machine struct {
	MachineID   string `json:"machineId"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Site        string `json:"site,omitempty"`
	Line        string `json:"line,omitempty"`
}

type machineWire struct {
	MachineID   *string `json:"machineId" validate:"required,min=1"`
	Type        *string `json:"type" validate:"required"`
	Description *string `json:"description" validate:"required"`
	Site        *string `json:"site"`
	Line        *string `json:"line"`
}

// DecodeMachine decodes a single flat machine object.
func DecodeMachine(data []byte) (Machine, error) {
	var w machineWire
	if err := DecodeInto("Machine", data, &w); err != nil {
		return Machine{}, err
	}
	return Machine{
		MachineID:   *w.MachineID,
		Type:        *w.Type,
		Description: *w.Description,
		Site:        deref(w.Site),
		Line:        deref(w.Line),
	}, nil
}

// DecodeMachines decodes a JSON array of flat machine objects.
func DecodeMachines(data []byte) ([]Machine, error) {
	return decodeList("Machine", data, DecodeMachine)
}

type machineLeafWire struct {
	Description *string `json:"description" validate:"required"`
	Site        *string `json:"site,omitempty"`
	Line        *string `json:"line,omitempty"`
}

// DecodeMachineGroups flattens the grouped catalog served by
// GET /retrieveMachines, keyed by machine type then machine id.
func DecodeMachineGroups(data []byte) ([]Machine, error) {
	var groups map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, jsonError("Machine groups", err)
	}

	var out []Machine
	for _, group := range slices.Sorted(maps.Keys(groups)) {
		leaves := groups[group]
		for _, id := range slices.Sorted(maps.Keys(leaves)) {
			var w machineLeafWire
			if err := DecodeInto("Machine "+id, leaves[id], &w); err != nil {
				return nil, err
			}
			out = append(out, Machine{
				MachineID:   id,
				Type:        SplitCamel(group),
				Description: *w.Description,
				Site:        deref(w.Site),
				Line:        deref(w.Line),
			})
		}
	}
	return out, nil
}

// EncodeMachineGroups writes machines back into the grouped layout.
func EncodeMachineGroups(machines []Machine) ([]byte, error) {
	groups := make(map[string]map[string]machineLeafWire)
	for _, m := range machines {
		group := compact(m.Type)
		if groups[group] == nil {
			groups[group] = make(map[string]machineLeafWire)
		}
		leaf := machineLeafWire{Description: &m.Description}
		if m.Site != "" {
			leaf.Site = &m.Site
		}
		if m.Line != "" {
			leaf.Line = &m.Line
		}
		groups[group][m.MachineID] = leaf
	}
	return json.Marshal(groups)
}

// compact undoes SplitCamel.
func compact(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
