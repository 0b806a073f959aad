// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
)

// World owns the canonical entity map, the spatial grid and the auxiliary
// views of rooms, items, NPCs and players.
type World struct {
	mu       sync.RWMutex
	bus      *core.Bus
	grid     *Grid
	entities map[string]*Entity
	order    []string
	views    map[Kind]map[string]struct{}
	serials  map[string]int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a World.
type Option func(*World)

// WithRand sets the random source used by components (NPC chatter, pods).
func WithRand(r *rand.Rand) Option {
	return func(w *World) { w.rng = r }
}

var indexedKinds = []Kind{
	KindRoom, KindItem, KindNPC, KindPlayer,
	KindPowerConsumer, KindChemicalContainer, KindMaintainable, KindCamera, KindMotionSensor,
}

// New creates an empty world publishing on bus.
func New(bus *core.Bus, opts ...Option) *World {
	w := &World{
		bus:      bus,
		grid:     NewGrid(),
		entities: make(map[string]*Entity),
		views:    make(map[Kind]map[string]struct{}),
		serials:  make(map[string]int),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // gameplay randomness
	}
	for _, k := range indexedKinds {
		w.views[k] = make(map[string]struct{})
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Bus returns the event bus the world publishes on.
func (w *World) Bus() *core.Bus { return w.bus }

// Grid returns the spatial index.
func (w *World) Grid() *Grid { return w.grid }

// Publish is shorthand for w.Bus().Publish.
func (w *World) Publish(ctx context.Context, topic core.Topic, payload core.Payload) {
	w.bus.Publish(ctx, topic, payload)
}

// Float64 returns a pseudo-random number in [0,1).
func (w *World) Float64() float64 {
	w.rngMu.Lock()
	defer w.rngMu.Unlock()
	return w.rng.Float64()
}

// IntN returns a pseudo-random number in [0,n).
func (w *World) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	w.rngMu.Lock()
	defer w.rngMu.Unlock()
	return w.rng.IntN(n)
}

// Register adds e to the world, runs OnAdded hooks in attach order and
// publishes object_created.
func (w *World) Register(ctx context.Context, e *Entity) error {
	if err := ValidateID(e.ID); err != nil {
		return oops.Code("INVALID_ENTITY").With("entity_id", e.ID).Wrap(err)
	}
	w.mu.Lock()
	if _, exists := w.entities[e.ID]; exists {
		w.mu.Unlock()
		return oops.Code("DUPLICATE_ID").With("entity_id", e.ID).Errorf("entity %s already exists", e.ID)
	}
	e.world = w
	w.entities[e.ID] = e
	w.order = append(w.order, e.ID)
	w.indexLocked(e)
	w.mu.Unlock()

	if e.Position != nil {
		w.grid.Insert(e.ID, *e.Position)
	}
	for _, c := range e.components {
		if hook, ok := c.(AddedHook); ok {
			hook.OnAdded(ctx, w)
		}
	}
	w.bus.Publish(ctx, core.TopicObjectCreated, core.Payload{
		"object_id": e.ID,
		"name":      e.Name,
		"location":  e.Location,
	})
	return nil
}

// Remove destroys the entity: its components are detached, bus
// subscriptions dropped, indexes and grid cleared, and object_destroyed published.
func (w *World) Remove(ctx context.Context, id string) error {
	w.mu.Lock()
	e, ok := w.entities[id]
	if !ok {
		w.mu.Unlock()
		return notFound(id)
	}
	delete(w.entities, id)
	if i := slices.Index(w.order, id); i >= 0 {
		w.order = slices.Delete(w.order, i, i+1)
	}
	for _, k := range indexedKinds {
		delete(w.views[k], id)
	}
	w.mu.Unlock()

	w.grid.Remove(id)
	for _, c := range e.components {
		w.bus.UnsubscribeAll(SubscriberID(c))
	}
	e.world = nil
	w.bus.Publish(ctx, core.TopicObjectDestroyed, core.Payload{
		"object_id": id,
		"location":  e.Location,
	})
	return nil
}

// Get returns the entity with id.
func (w *World) Get(id string) (*Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	return e, ok
}

// Has reports whether id is registered.
func (w *World) Has(id string) bool {
	_, ok := w.Get(id)
	return ok
}

// Lookup returns the entity with id or a NOT_FOUND error.
func (w *World) Lookup(id string) (*Entity, error) {
	if e, ok := w.Get(id); ok {
		return e, nil
	}
	return nil, notFound(id)
}

// Len returns the number of registered entities.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entities)
}

// All returns every entity in registration order.
func (w *World) All() []*Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Entity, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.entities[id])
	}
	return out
}

// At returns the entities whose location is loc, in registration order.
func (w *World) At(loc string) []*Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []*Entity
	for _, id := range w.order {
		if e := w.entities[id]; e.Location == loc {
			out = append(out, e)
		}
	}
	return out
}

// Rooms returns entities with a room component, sorted by id.
func (w *World) Rooms() []*Entity { return w.view(KindRoom) }

// Items returns entities with an item component, sorted by id.
func (w *World) Items() []*Entity { return w.view(KindItem) }

// NPCs returns entities with an npc component, sorted by id.
func (w *World) NPCs() []*Entity { return w.view(KindNPC) }

// Players returns entities with a player component, sorted by id.
func (w *World) Players() []*Entity { return w.view(KindPlayer) }

// PlayersIn returns the player entities located in room.
func (w *World) PlayersIn(room string) []*Entity {
	var out []*Entity
	for _, e := range w.Players() {
		if e.Location == room {
			out = append(out, e)
		}
	}
	return out
}

// Having returns entities with a component of kind, sorted by id.
func (w *World) Having(kind Kind) []*Entity {
	if slices.Contains(indexedKinds, kind) {
		return w.view(kind)
	}
	var out []*Entity
	for _, e := range w.All() {
		if e.Has(kind) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) view(kind Kind) []*Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ids := make([]string, 0, len(w.views[kind]))
	for id := range w.views[kind] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.entities[id])
	}
	return out
}

func (w *World) reindex(e *Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.entities[e.ID]; !ok {
		return
	}
	for _, k := range indexedKinds {
		delete(w.views[k], e.ID)
	}
	w.indexLocked(e)
}

func (w *World) indexLocked(e *Entity) {
	for _, k := range indexedKinds {
		if e.Has(k) {
			w.views[k][e.ID] = struct{}{}
		}
	}
}

// MoveTo sets the logical location of id and publishes object_moved. The
// destination must be a room; "" means owned by a container or inventory.
func (w *World) MoveTo(ctx context.Context, id, dest string) error {
	e, err := w.Lookup(id)
	if err != nil {
		return err
	}
	if dest != "" {
		target, ok := w.Get(dest)
		if !ok {
			return oops.Code("NOT_FOUND").With("object_id", id).With("destination", dest).
				Errorf("destination %s does not exist", dest)
		}
		if !target.Has(KindRoom) {
			return oops.Code("INVALID_MOVE").With("object_id", id).With("destination", dest).
				Errorf("%s is not a room", dest)
		}
	}
	w.mu.Lock()
	from := e.Location
	e.Location = dest
	w.mu.Unlock()

	w.bus.Publish(ctx, core.TopicObjectMoved, core.Payload{
		"object_id": id,
		"from":      from,
		"to":        dest,
	})
	return nil
}

// MovePosition places id on the tile grid and publishes object_moved_xy.
func (w *World) MovePosition(ctx context.Context, id string, x, y int) error {
	e, err := w.Lookup(id)
	if err != nil {
		return err
	}
	pos := Position{X: x, Y: y}
	w.mu.Lock()
	var from *Position
	if e.Position != nil {
		p := *e.Position
		from = &p
	}
	e.Position = &pos
	w.mu.Unlock()

	w.grid.Move(id, pos)
	payload := core.Payload{"object_id": id, "x": x, "y": y}
	if from != nil {
		payload["from_x"], payload["from_y"] = from.X, from.Y
	}
	w.bus.Publish(ctx, core.TopicObjectMovedXY, payload)
	return nil
}

// NextSerial returns the next unused id of the form prefix_N.
func (w *World) NextSerial(prefix string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		w.serials[prefix]++
		id := prefix + "_" + strconv.Itoa(w.serials[prefix])
		if _, taken := w.entities[id]; !taken {
			return id
		}
	}
}

// RoomOf returns the room id an entity is in, following container chains
// through location. Returns "" when the entity is not in any room.
func (w *World) RoomOf(id string) string {
	seen := map[string]bool{}
	for id != "" && !seen[id] {
		seen[id] = true
		e, ok := w.Get(id)
		if !ok {
			return ""
		}
		if e.Has(KindRoom) {
			return e.ID
		}
		id = e.Location
	}
	return ""
}

// Describe renders the look text of a room as seen by viewer.
func (w *World) Describe(roomID, viewer string) (string, error) {
	e, err := w.Lookup(roomID)
	if err != nil {
		return "", err
	}
	room, ok := As[*Room](e)
	if !ok {
		return "", oops.Code("NOT_A_ROOM").With("object_id", roomID).Errorf("%s is not a room", roomID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\nExits: %s\n", e.Name, e.Description, strings.Join(room.ExitNames(), ", "))
	if hz := room.HazardList(); len(hz) > 0 {
		fmt.Fprintf(&b, "Hazards: %s\n", strings.Join(hz, ", "))
	}

	var things, people []string
	for _, o := range w.At(roomID) {
		switch {
		case o.ID == viewer:
		case o.Has(KindPlayer) || o.Has(KindNPC):
			people = append(people, o.Name)
		default:
			things = append(things, o.Name)
		}
	}
	if len(things) > 0 {
		b.WriteString("\nYou see:\n")
		for _, n := range things {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	if len(people) > 0 {
		fmt.Fprintf(&b, "\nAlso here: %s\n", strings.Join(people, ", "))
	}
	return b.String(), nil
}

// CheckInvariants verifies the location and ownership invariants of the
// store. It is cheap enough for tests and the @audit admin verb.
func (w *World) CheckInvariants() []error {
	var errs []error
	owned := map[string]string{}
	for _, e := range w.All() {
		if e.Location != "" && !w.Has(e.Location) {
			errs = append(errs, fmt.Errorf("%s located in missing entity %s", e.ID, e.Location))
		}
		if c, ok := As[*Container](e); ok {
			ids := c.ItemIDs()
			if len(ids) > c.Capacity {
				errs = append(errs, fmt.Errorf("container %s over capacity", e.ID))
			}
			for _, id := range ids {
				if prev, dup := owned[id]; dup {
					errs = append(errs, fmt.Errorf("item %s held by both %s and %s", id, prev, e.ID))
				}
				owned[id] = e.ID
				if item, ok := w.Get(id); ok && item.Location != "" {
					errs = append(errs, fmt.Errorf("contained item %s has location %s", id, item.Location))
				}
			}
		}
		if p, ok := As[*Player](e); ok {
			if len(p.Inventory) > p.MaxInventory {
				errs = append(errs, fmt.Errorf("player %s inventory over capacity", e.ID))
			}
			for _, id := range p.Equipment {
				if slices.Contains(p.Inventory, id) {
					errs = append(errs, fmt.Errorf("player %s has %s both equipped and in inventory", e.ID, id))
				}
			}
		}
	}
	if len(errs) > 0 {
		slog.Debug("world invariant violations", "count", len(errs))
	}
	return errs
}

func notFound(id string) error {
	return oops.Code("NOT_FOUND").With("object_id", id).Errorf("no such object: %s", id)
}
