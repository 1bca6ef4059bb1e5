package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCamel(t *testing.T) {
	tests := map[string]string{
		"EnergyKPI":      "Energy KPI",
		"LaserCutter":    "Laser Cutter",
		"KPIEnergy":      "KPI Energy",
		"AssemblyLine2B": "Assembly Line2 B",
		"simple":         "simple",
		"":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SplitCamel(in), "SplitCamel(%q)", in)
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"energy_cost_avg":  "Energy Cost (Avg)",
		"cycles_max":       "Cycles (Max)",
		"idle_time":        "Idle Time",
		"power_sum":        "Power (Sum)",
		"consumption__min": "Consumption (Min)",
	}
	for in, want := range tests {
		assert.Equal(t, want, DisplayName(in), "DisplayName(%q)", in)
	}
}

func TestAggregationOf(t *testing.T) {
	assert.Equal(t, "max", AggregationOf("cycles_max"))
	assert.Equal(t, "sum", AggregationOf("power_SUM"))
	assert.Equal(t, "", AggregationOf("maximum"))
	assert.Equal(t, "", AggregationOf("energy_cost"))
}
