// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"log/slog"
	"slices"
	"time"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Factory returns a component with its default field values.
type Factory func() Component

// ComponentRegistry maps record keys to component factories. Decoding
// follows registration order so hooks run deterministically.
type ComponentRegistry struct {
	order     []Kind
	factories map[Kind]Factory
}

// NewComponentRegistry returns an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{factories: make(map[Kind]Factory)}
}

// Register adds a factory for kind.
func (r *ComponentRegistry) Register(kind Kind, f Factory) error {
	if _, dup := r.factories[kind]; dup {
		return oops.Code("DUPLICATE_COMPONENT").With("kind", kind).Errorf("component kind %s already registered", kind)
	}
	r.factories[kind] = f
	r.order = append(r.order, kind)
	return nil
}

// Kinds returns the registered kinds in registration order.
func (r *ComponentRegistry) Kinds() []Kind { return slices.Clone(r.order) }

// New returns a default component of kind.
func (r *ComponentRegistry) New(kind Kind) (Component, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, oops.Code("UNKNOWN_COMPONENT").With("kind", kind).Errorf("unknown component kind %q", kind)
	}
	return f(), nil
}

// Decode builds a component of kind from node, starting from its defaults.
func (r *ComponentRegistry) Decode(kind Kind, node *yaml.Node) (Component, error) {
	c, err := r.New(kind)
	if err != nil {
		return nil, err
	}
	if node == nil || node.Kind == 0 {
		return c, nil
	}
	if err := node.Decode(c); err != nil {
		return nil, oops.Code("PERSIST_DECODE").With("kind", kind).With("line", node.Line).Wrap(err)
	}
	return c, nil
}

// DefaultComponents returns a registry holding every built-in component.
func DefaultComponents() *ComponentRegistry {
	r := NewComponentRegistry()
	for _, e := range []struct {
		kind Kind
		f    Factory
	}{
		{KindRoom, func() Component { return NewRoom() }},
		{KindDoor, func() Component { return NewDoor() }},
		{KindContainer, func() Component { return NewContainer() }},
		{KindItem, func() Component { return NewItem() }},
		{KindIDCard, func() Component { return &IDCard{} }},
		{KindAccess, func() Component { return &Access{} }},
		{KindPlayer, func() Component { return NewPlayer("") }},
		{KindNPC, func() Component { return NewNPC() }},
		{KindPowerConsumer, func() Component { return NewPowerConsumer() }},
		{KindFluidContainer, func() Component { return NewFluidContainer() }},
		{KindChemicalContainer, func() Component { return NewChemicalContainer() }},
		{KindStructure, func() Component { return NewStructure() }},
		{KindCamera, func() Component { return NewCamera() }},
		{KindMotionSensor, func() Component { return NewMotionSensor() }},
		{KindCircuit, func() Component { return NewCircuit() }},
		{KindMaintainable, func() Component { return NewMaintainable(time.Now()) }},
		{KindReplicaPod, func() Component { return NewReplicaPod() }},
		{KindMedicalScanner, func() Component { return &MedicalScanner{} }},
	} {
		if err := r.Register(e.kind, e.f); err != nil {
			panic(err)
		}
	}
	return r
}

// EntityRecord is the YAML form of an entity. Components are keyed by kind.
type EntityRecord struct {
	ID          string               `yaml:"id"`
	Name        string               `yaml:"name"`
	Description string               `yaml:"description,omitempty"`
	Location    string               `yaml:"location,omitempty"`
	Position    *Position            `yaml:"position,omitempty"`
	Components  map[string]yaml.Node `yaml:"components,omitempty"`
}

// EncodeEntity converts e into a record.
func EncodeEntity(e *Entity) (EntityRecord, error) {
	rec := EntityRecord{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		Components:  make(map[string]yaml.Node, len(e.components)),
	}
	if e.Position != nil {
		p := *e.Position
		rec.Position = &p
	}
	for _, c := range e.components {
		var n yaml.Node
		if err := n.Encode(c); err != nil {
			return EntityRecord{}, oops.Code("PERSIST_ENCODE").With("entity_id", e.ID).With("kind", c.Kind()).Wrap(err)
		}
		rec.Components[string(c.Kind())] = n
	}
	return rec, nil
}

// DecodeEntity builds an unregistered entity from rec. Unknown component
// keys are logged and skipped.
func (r *ComponentRegistry) DecodeEntity(rec EntityRecord) (*Entity, error) {
	if err := ValidateRecord(rec); err != nil {
		return nil, oops.Code("PERSIST_DECODE").With("entity_id", rec.ID).Wrap(err)
	}
	e := NewEntity(rec.ID, rec.Name, rec.Description)
	e.Location = rec.Location
	if rec.Position != nil {
		p := *rec.Position
		e.Position = &p
	}
	for key := range rec.Components {
		if _, ok := r.factories[Kind(key)]; !ok {
			slog.Warn("skipping unknown component", "entity_id", rec.ID, "kind", key)
		}
	}
	for _, kind := range r.order {
		node, ok := rec.Components[string(kind)]
		if !ok {
			continue
		}
		c, err := r.Decode(kind, &node)
		if err != nil {
			return nil, oops.With("entity_id", rec.ID).Wrap(err)
		}
		if err := e.Add(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Snapshot encodes every entity in registration order. Callers hold the
// world fence so components do not change mid-copy.
func (w *World) Snapshot() ([]EntityRecord, error) {
	all := w.All()
	out := make([]EntityRecord, 0, len(all))
	for _, e := range all {
		rec, err := EncodeEntity(e)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
