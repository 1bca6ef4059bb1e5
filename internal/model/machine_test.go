package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMachineGroups(t *testing.T) {
	data := `{
		"LaserCutter": {
			"ast-0001": {"description": "Laser cutter 1", "site": "Turin", "line": "L1"},
			"ast-0002": {"description": "Laser cutter 2"}
		},
		"AssemblyMachine": {
			"ast-0101": {"description": "Assembly 1", "line": "L2"}
		}
	}`
	machines, err := DecodeMachineGroups([]byte(data))
	require.NoError(t, err)
	require.Len(t, machines, 3)

	assert.Equal(t, Machine{MachineID: "ast-0101", Type: "Assembly Machine", Description: "Assembly 1", Line: "L2"}, machines[0])
	assert.Equal(t, "Laser Cutter", machines[1].Type)
	assert.Equal(t, "Turin", machines[1].Site)
	assert.Empty(t, machines[2].Site)

	again, err := EncodeMachineGroups(machines)
	require.NoError(t, err)
	decoded, err := DecodeMachineGroups(again)
	require.NoError(t, err)
	assert.Equal(t, machines, decoded)
}

func TestDecodeMachine(t *testing.T) {
	m, err := DecodeMachine([]byte(`{"machineId":"ast-1","type":"Riveter","description":"r"}`))
	require.NoError(t, err)
	assert.Equal(t, "ast-1", m.MachineID)

	_, err = DecodeMachine([]byte(`{"type":"Riveter","description":"r"}`))
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "machineId", de.Field)

	_, err = DecodeMachine([]byte(`[1,2]`))
	require.True(t, errors.As(err, &de))
}
