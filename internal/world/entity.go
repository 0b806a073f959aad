// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package world holds the entity-component store of the station: entities,
// their component variants, the spatial index and room-graph pathfinding.
//
// Entities refer to one another only by id. Every cross-entity lookup goes
// through the World, which owns the canonical entity map.
package world

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/samber/oops"
)

// Kind names a component variant. It is also the key used in YAML records.
type Kind string

// Component kinds.
const (
	KindRoom              Kind = "room"
	KindDoor              Kind = "door"
	KindContainer         Kind = "container"
	KindItem              Kind = "item"
	KindPlayer            Kind = "player"
	KindNPC               Kind = "npc"
	KindPowerConsumer     Kind = "power_consumer"
	KindFluidContainer    Kind = "fluid_container"
	KindChemicalContainer Kind = "chemical_container"
	KindStructure         Kind = "structure"
	KindAccess            Kind = "access"
	KindIDCard            Kind = "id_card"
	KindCamera            Kind = "camera"
	KindMotionSensor      Kind = "motion_sensor"
	KindCircuit           Kind = "circuit"
	KindMaintainable      Kind = "maintainable"
	KindReplicaPod        Kind = "replica_pod"
	KindMedicalScanner    Kind = "medical_scanner"
)

// Component is a state record attached to exactly one entity.
type Component interface {
	Kind() Kind
	// Owner returns the id of the owning entity, or "" before attachment.
	Owner() string
	bindOwner(id string)
}

// AddedHook is implemented by components that need to react once the owning
// entity is registered, typically to subscribe to bus topics.
type AddedHook interface {
	OnAdded(ctx context.Context, w *World)
}

// Ticker is implemented by components that advance on a scheduler tick.
type Ticker interface {
	Tick(ctx context.Context, w *World, now time.Time)
}

// Base carries the owner id shared by every component. Embed it.
type Base struct {
	owner string
}

// Owner returns the owning entity id.
func (b *Base) Owner() string { return b.owner }

func (b *Base) bindOwner(id string) { b.owner = id }

// SubscriberID returns the bus subscriber id a component uses.
func SubscriberID(c Component) string {
	return c.Owner() + "/" + string(c.Kind())
}

// Position is a cell of the station tile grid.
type Position struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Entity is the only thing in the station with identity.
type Entity struct {
	ID          string
	Name        string
	Description string
	// Location is the id of the containing entity (usually a room), or "".
	Location string
	Position *Position

	components []Component
	world      *World
}

// NewEntity creates an unregistered entity.
func NewEntity(id, name, description string) *Entity {
	return &Entity{ID: id, Name: name, Description: description}
}

// Add attaches c. An entity holds at most one component per kind and a
// component belongs to at most one entity.
func (e *Entity) Add(c Component) error {
	if owner := c.Owner(); owner != "" && owner != e.ID {
		return oops.Code("COMPONENT_OWNED").
			With("entity_id", e.ID).
			With("owner", owner).
			With("kind", c.Kind()).
			Errorf("component %s already belongs to %s", c.Kind(), owner)
	}
	if e.Has(c.Kind()) {
		return oops.Code("COMPONENT_EXISTS").
			With("entity_id", e.ID).
			With("kind", c.Kind()).
			Errorf("entity %s already has a %s component", e.ID, c.Kind())
	}
	c.bindOwner(e.ID)
	e.components = append(e.components, c)
	if e.world != nil {
		e.world.reindex(e)
	}
	return nil
}

// MustAdd attaches components and panics on conflict. Used by fixtures.
func (e *Entity) MustAdd(cs ...Component) *Entity {
	for _, c := range cs {
		if err := e.Add(c); err != nil {
			panic(err)
		}
	}
	return e
}

// Remove detaches the component of kind. It reports whether one was present.
func (e *Entity) Remove(kind Kind) bool {
	for i, c := range e.components {
		if c.Kind() == kind {
			e.components = slices.Delete(e.components, i, i+1)
			if e.world != nil {
				e.world.bus.UnsubscribeAll(SubscriberID(c))
				e.world.reindex(e)
			}
			c.bindOwner("")
			return true
		}
	}
	return false
}

// Component returns the component of kind.
func (e *Entity) Component(kind Kind) (Component, bool) {
	for _, c := range e.components {
		if c.Kind() == kind {
			return c, true
		}
	}
	return nil, false
}

// Components returns the attached components in attach order.
func (e *Entity) Components() []Component {
	return slices.Clone(e.components)
}

// Has reports whether a component of kind is attached.
func (e *Entity) Has(kind Kind) bool {
	_, ok := e.Component(kind)
	return ok
}

// As returns the first component of e with concrete type T.
func As[T Component](e *Entity) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	for _, c := range e.components {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	return zero, false
}
