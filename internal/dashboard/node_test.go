package dashboard

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfactory/sfdash/internal/model"
)

func entry(kpi string, g model.GraphType) model.DashboardEntry {
	return model.DashboardEntry{KPI: kpi, GraphType: g}
}

func sampleTree() Node {
	return NewRoot(
		NewFolder("production", "Production",
			NewLayout("energy", "Energy",
				entry("energy_cost_avg", model.GraphLine),
				entry("power_consumption_sum", model.GraphPie),
			),
			NewFolder("empty", "Empty"),
		),
		NewLayout("overview", "Overview", entry("utilization_rate", model.GraphHist)),
		NewLayout("blank", "Blank"),
	)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tree := sampleTree()
	data, err := Encode(tree)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	if diff := cmp.Diff(tree, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeEmitsArrays(t *testing.T) {
	data, err := Encode(NewRoot(NewFolder("f", "F"), NewLayout("l", "L")))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")
	assert.Contains(t, string(data), `"children":[]`)
	assert.Contains(t, string(data), `"views":[]`)
}

func TestDecodeFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"both children and views", `{"id":"a","name":"A","children":[],"views":[]}`},
		{"neither", `{"id":"a","name":"A"}`},
		{"missing id", `{"name":"A","views":[]}`},
		{"empty id", `{"id":"","name":"A","views":[]}`},
		{"missing name", `{"id":"a","views":[]}`},
		{"bad child", `{"id":"a","name":"A","children":[{"id":"b","name":"B"}]}`},
		{"bad graph type", `{"id":"a","name":"A","views":[{"kpi":"x","graph_type":"radar"}]}`},
		{"view missing kpi", `{"id":"a","name":"A","views":[{"graph_type":"line"}]}`},
		{"malformed", `{"id":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			require.Error(t, err)
		})
	}
}

func TestDecodeErrorIsTyped(t *testing.T) {
	_, err := Decode([]byte(`{"id":"a","name":"A","children":[{"name":"B","views":[]}]}`))
	var de *model.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "id", de.Field)
}

func TestDecodeTreeForms(t *testing.T) {
	arr, err := DecodeTree([]byte(` [{"id":"a","name":"A","views":[]}]`))
	require.NoError(t, err)
	assert.Equal(t, RootID, arr.ID)
	assert.Equal(t, []string{"a"}, arr.ChildIDs())

	root, err := DecodeTree([]byte(`{"id":"root","name":"Dashboards","children":[{"id":"a","name":"A","views":[]}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, root.ChildIDs())

	wrapped, err := DecodeTree([]byte(`{"id":"f","name":"F","children":[]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"f"}, wrapped.ChildIDs())
}

func TestFindAndLayouts(t *testing.T) {
	tree := sampleTree()

	n, ok := Find(tree, "energy")
	require.True(t, ok)
	assert.Equal(t, KindLayout, n.Kind)
	assert.Len(t, n.Views, 2)

	_, ok = Find(tree, "nope")
	assert.False(t, ok)

	var ids []string
	for _, l := range Layouts(tree) {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"energy", "overview", "blank"}, ids)
}

func TestIDsCoversWholeTree(t *testing.T) {
	assert.Equal(t, []string{RootID, "production", "energy", "empty", "overview", "blank"}, IDs(sampleTree()))
}

func TestWalkDepthAndStop(t *testing.T) {
	depths := map[string]int{}
	Walk(sampleTree(), func(n Node, d int) bool {
		depths[n.ID] = d
		return true
	})
	assert.Equal(t, 0, depths[RootID])
	assert.Equal(t, 1, depths["production"])
	assert.Equal(t, 2, depths["energy"])

	visited := 0
	Walk(sampleTree(), func(Node, int) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

func TestCloneIsDeep(t *testing.T) {
	tree := sampleTree()
	c := tree.Clone()
	c.Children[0].Children[0].Views[0].KPI = "changed"
	c.Children[0].Name = "changed"

	assert.Equal(t, "energy_cost_avg", tree.Children[0].Children[0].Views[0].KPI)
	assert.Equal(t, "Production", tree.Children[0].Name)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "line_3_energy", Slug("  Line 3 / Energy "))
	assert.Equal(t, "oee", Slug("OEE!"))
	assert.Equal(t, "dashboard", Slug("***"))
}
