// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persistence

import (
	"errors"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/yakuzadave/pymud-ss13/internal/script"
	"github.com/yakuzadave/pymud-ss13/internal/systems/atmos"
	"github.com/yakuzadave/pymud-ss13/internal/systems/botany"
	"github.com/yakuzadave/pymud-ss13/internal/systems/cargo"
	"github.com/yakuzadave/pymud-ss13/internal/systems/chemistry"
	"github.com/yakuzadave/pymud-ss13/internal/systems/disease"
	"github.com/yakuzadave/pymud-ss13/internal/systems/events"
	"github.com/yakuzadave/pymud-ss13/internal/systems/kitchen"
	"github.com/yakuzadave/pymud-ss13/internal/systems/power"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

// Data table file names.
const (
	EventsFile      = "random_events.yaml"
	ChemistryFile   = "chemistry_recipes.yaml"
	DrinksFile      = "drink_recipes.yaml"
	RecipesFile     = "recipes.yaml"
	DiseasesFile    = "diseases.yaml"
	FertilizersFile = "fertilizers.yaml"
	CargoFile       = "cargo.yaml"
	PowerFile       = "power_grids.yaml"
	AtmosFile       = "atmos.yaml"
)

// LoadTable reads a YAML table, validates it against the schema reflected
// from T and decodes it. A missing file reports false with no error.
func LoadTable[T any](path string) (T, bool, error) {
	var zero T
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, oops.Code(CodeIO).With("path", path).Wrap(err)
	}
	if err := validateYAML(filepath.Base(path), data, &zero); err != nil {
		return zero, false, oops.With("path", path).Wrap(err)
	}
	var out T
	if err := yaml.Unmarshal(data, &out); err != nil {
		return zero, false, oops.Code(CodeDecode).With("path", path).Wrap(err)
	}
	return out, true, nil
}

// DataTables is every optional table under the data directory. A nil or
// zero field means the file was absent or invalid; systems then keep their
// built-in defaults.
type DataTables struct {
	Events      []events.Definition
	Chemistry   chemistry.Tables
	Drinks      []kitchen.Recipe
	Recipes     []kitchen.Recipe
	Diseases    []disease.Definition
	Fertilizers []botany.Fertilizer
	Cargo       *cargo.Table
	Power       *power.Layout
	Atmos       *atmos.Layout
}

// LoadTables reads every data table. Bad tables are logged and left empty.
func (s *Store) LoadTables() DataTables {
	var t DataTables
	t.Events = table[[]events.Definition](s, EventsFile)
	t.Chemistry = table[chemistry.Tables](s, ChemistryFile)
	t.Drinks = table[[]kitchen.Recipe](s, DrinksFile)
	t.Recipes = table[[]kitchen.Recipe](s, RecipesFile)
	t.Diseases = table[[]disease.Definition](s, DiseasesFile)
	t.Fertilizers = table[[]botany.Fertilizer](s, FertilizersFile)
	t.Cargo = tablePtr[cargo.Table](s, CargoFile)
	t.Power = tablePtr[power.Layout](s, PowerFile)
	t.Atmos = tablePtr[atmos.Layout](s, AtmosFile)
	return t
}

func table[T any](s *Store, name string) T {
	v, ok, err := LoadTable[T](s.Path(name))
	if err != nil {
		errutil.LogError(slog.Default(), "ignoring data table", err)
		var zero T
		return zero
	}
	if ok {
		slog.Debug("loaded data table", "file", name)
	}
	return v
}

func tablePtr[T any](s *Store, name string) *T {
	v, ok, err := LoadTable[T](s.Path(name))
	if err != nil {
		errutil.LogError(slog.Default(), "ignoring data table", err)
		return nil
	}
	if !ok {
		return nil
	}
	slog.Debug("loaded data table", "file", name)
	return &v
}

// Schemas maps each data file to the value its schema is reflected from.
func Schemas() map[string]any {
	return map[string]any{
		EventsFile:      &[]events.Definition{},
		ChemistryFile:   &chemistry.Tables{},
		DrinksFile:      &[]kitchen.Recipe{},
		RecipesFile:     &[]kitchen.Recipe{},
		DiseasesFile:    &[]disease.Definition{},
		FertilizersFile: &[]botany.Fertilizer{},
		CargoFile:       &cargo.Table{},
		PowerFile:       &power.Layout{},
		AtmosFile:       &atmos.Layout{},
		ScriptsFile:     &[]script.Record{},
	}
}

// WriteSchemas writes <file>.schema.json for every data table into dir and
// returns the paths.
func WriteSchemas(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, oops.Code(CodeIO).With("path", dir).Wrap(err)
	}
	all := Schemas()
	names := slices.Sorted(maps.Keys(all))
	written := make([]string, 0, len(names))
	for _, name := range names {
		data, err := GenerateSchema(name, name, all[name])
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name))+".schema.json")
		if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
			return written, oops.Code(CodeIO).With("path", path).Wrap(err)
		}
		written = append(written, path)
	}
	return written, nil
}
