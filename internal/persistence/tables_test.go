// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persistence_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/persistence"
	"github.com/yakuzadave/pymud-ss13/internal/systems/power"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

const gridsYAML = `
grids:
  - id: main
    name: Main Grid
    rooms: [bridge, hall]
    capacity: 500
    generators:
      - id: gen1
        capacity: 300
`

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, persistence.PowerFile, gridsYAML)

	layout, ok, err := persistence.LoadTable[power.Layout](filepath.Join(dir, persistence.PowerFile))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, layout.Grids, 1)
	assert.Equal(t, "Main Grid", layout.Grids[0].Name)
	assert.InDelta(t, 300.0, layout.Grids[0].Generators[0].Capacity, 0.001)
}

func TestLoadTable_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing grid id", "grids:\n  - name: Nameless\n"},
		{"negative capacity", "grids:\n  - id: main\n    capacity: -5\n"},
		{"wrong type", "grids: lots\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeData(t, dir, persistence.PowerFile, tt.body)
			_, _, err := persistence.LoadTable[power.Layout](filepath.Join(dir, persistence.PowerFile))
			errutil.AssertErrorCode(t, err, persistence.CodeSchema)
		})
	}
}

func TestLoadTable_Missing(t *testing.T) {
	_, ok, err := persistence.LoadTable[power.Layout](filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadTables_SkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, persistence.PowerFile, gridsYAML)
	writeData(t, dir, persistence.AtmosFile, "- this is a list, not a layout\n")
	writeData(t, dir, persistence.EventsFile, "- id: meteor_shower\n  weight: 3\n  description: Rocks.\n")

	tables := persistence.New(dir).LoadTables()
	require.NotNil(t, tables.Power)
	assert.Nil(t, tables.Atmos)
	assert.Nil(t, tables.Cargo)
	require.Len(t, tables.Events, 1)
	assert.Equal(t, "meteor_shower", tables.Events[0].ID)
}

func TestWriteSchemas(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schemas")
	paths, err := persistence.WriteSchemas(dir)
	require.NoError(t, err)
	assert.Len(t, paths, len(persistence.Schemas()))

	data, err := os.ReadFile(filepath.Join(dir, "power_grids.schema.json"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "https://mudss13.dev/schemas/power_grids.yaml", doc["$id"])
}
