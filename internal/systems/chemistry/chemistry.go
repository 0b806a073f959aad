// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package chemistry synthesizes chemicals from carried reagents and runs
// reactions inside beakers.
package chemistry

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// MaxPasses bounds how many times the reaction list is re-run on one
// container per tick.
const MaxPasses = 10

// Recipe is a row of chemistry_recipes.yaml.
type Recipe struct {
	Output string   `yaml:"output" json:"output" jsonschema:"required"`
	Inputs []string `yaml:"inputs" json:"inputs" jsonschema:"required,minItems=1"`
}

// Reaction consumes one unit of each reactant and yields one unit of each
// product and byproduct.
type Reaction struct {
	Reactants  []string `yaml:"reactants" json:"reactants" jsonschema:"required,minItems=1"`
	Products   []string `yaml:"products" json:"products" jsonschema:"required"`
	Byproducts []string `yaml:"byproducts,omitempty" json:"byproducts,omitempty"`
	MinTemp    *float64 `yaml:"min_temp,omitempty" json:"min_temp,omitempty"`
	Catalyst   string   `yaml:"catalyst,omitempty" json:"catalyst,omitempty"`
}

// Tables is everything chemistry loads from data files.
type Tables struct {
	Recipes   []Recipe   `yaml:"recipes" json:"recipes"`
	Reactions []Reaction `yaml:"reactions" json:"reactions"`
}

const (
	msgLacking = "You lack some of the required chemicals."
	msgUnknown = "No known recipe for that combination."
)

// System holds recipes and reactions.
type System struct {
	mu        sync.RWMutex
	w         *world.World
	recipes   []Recipe
	reactions []Reaction
}

// New creates a chemistry system from tables.
func New(w *world.World, t Tables) *System {
	s := &System{w: w}
	for _, r := range t.Recipes {
		s.AddRecipe(r)
	}
	for _, r := range t.Reactions {
		s.AddReaction(r)
	}
	return s
}

// AddRecipe registers a synthesis recipe, replacing one with the same output.
func (s *System) AddRecipe(r Recipe) {
	r.Inputs = sorted(r.Inputs)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes = slices.DeleteFunc(s.recipes, func(o Recipe) bool { return o.Output == r.Output })
	s.recipes = append(s.recipes, r)
}

// AddReaction appends a reaction. Reactions are tried in insertion order.
func (s *System) AddReaction(r Reaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions = append(s.reactions, r)
}

func sorted(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	sort.Strings(out)
	return out
}

// Synthesize crafts the recipe whose inputs exactly match, consuming the
// carried chemicals and giving the player a new chemical item.
func (s *System) Synthesize(ctx context.Context, playerID string, inputs []string) (world.Outcome, error) {
	pe, err := s.w.Lookup(playerID)
	if err != nil {
		return world.Outcome{}, err
	}
	p, ok := world.As[*world.Player](pe)
	if !ok {
		return world.Outcome{}, oops.Code("NOT_A_PLAYER").With("object_id", playerID).Errorf("%s is not a player", playerID)
	}
	want := sorted(inputs)
	s.mu.RLock()
	var recipe *Recipe
	for i := range s.recipes {
		if slices.Equal(s.recipes[i].Inputs, want) {
			r := s.recipes[i]
			recipe = &r
			break
		}
	}
	s.mu.RUnlock()
	if recipe == nil {
		return world.Outcome{Text: msgUnknown}, nil
	}
	used := make([]string, 0, len(want))
	for _, in := range want {
		id := s.find(p, in, used)
		if id == "" {
			return world.Outcome{Text: msgLacking}, nil
		}
		used = append(used, id)
	}
	for _, id := range used {
		p.RemoveFromInventory(id)
		if s.w.Has(id) {
			if err := s.w.Remove(ctx, id); err != nil {
				return world.Outcome{}, err
			}
		}
	}
	id := s.w.NextSerial(recipe.Output)
	e := world.NewEntity(id, recipe.Output, "a vial of "+strings.ReplaceAll(recipe.Output, "_", " "))
	item := world.NewItem()
	item.ItemType = "chemical"
	item.Weight = 0.2
	e.MustAdd(item)
	if err := s.w.Register(ctx, e); err != nil {
		return world.Outcome{}, err
	}
	if err := s.w.GiveItem(ctx, playerID, id); err != nil {
		return world.Outcome{}, err
	}
	s.w.Publish(ctx, core.TopicChemicalSynthesized, core.Payload{"player_id": playerID, "output": recipe.Output, "item_id": id})
	return world.Outcome{OK: true, Text: "You synthesize " + recipe.Output + "."}, nil
}

func (s *System) find(p *world.Player, name string, used []string) string {
	for _, id := range p.Inventory {
		if slices.Contains(used, id) {
			continue
		}
		if strings.EqualFold(id, name) {
			return id
		}
		if e, ok := s.w.Get(id); ok && strings.EqualFold(e.Name, name) {
			return id
		}
	}
	return ""
}

// Heat sets a container's temperature.
func (s *System) Heat(containerID string, temp float64) error {
	c, err := s.container(containerID)
	if err != nil {
		return err
	}
	c.Temperature = temp
	return nil
}

func (s *System) container(id string) (*world.ChemicalContainer, error) {
	e, err := s.w.Lookup(id)
	if err != nil {
		return nil, err
	}
	c, ok := world.As[*world.ChemicalContainer](e)
	if !ok {
		return nil, oops.Code("NOT_A_CONTAINER").With("object_id", id).Errorf("%s cannot hold chemicals", e.Name)
	}
	return c, nil
}

// Process runs the reaction list over one container until nothing fires or
// MaxPasses is reached, and returns the product sets that formed.
func (s *System) Process(ctx context.Context, containerID string) ([]string, error) {
	c, err := s.container(containerID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	reactions := slices.Clone(s.reactions)
	s.mu.RUnlock()
	var results []string
	for range MaxPasses {
		fired := false
		for _, r := range reactions {
			if !ready(c, r) {
				continue
			}
			for _, in := range r.Reactants {
				_ = c.Remove(in, 1)
			}
			for _, out := range slices.Concat(r.Products, r.Byproducts) {
				_ = c.Add(out, 1)
			}
			fired = true
			label := strings.Join(r.Products, "+")
			results = append(results, label)
			s.w.Publish(ctx, core.TopicReactionOccurred, core.Payload{
				"container_id": containerID, "products": slices.Clone(r.Products), "byproducts": slices.Clone(r.Byproducts),
			})
		}
		if !fired {
			break
		}
	}
	return results, nil
}

func ready(c *world.ChemicalContainer, r Reaction) bool {
	if r.Catalyst != "" && c.Amount(r.Catalyst) <= 0 {
		return false
	}
	if r.MinTemp != nil && c.Temperature < *r.MinTemp {
		return false
	}
	for _, in := range r.Reactants {
		if c.Amount(in) < 1 {
			return false
		}
	}
	return true
}

// Tick processes every chemical container in the world.
func (s *System) Tick(ctx context.Context, _ time.Time) error {
	for _, e := range s.w.Having(world.KindChemicalContainer) {
		if _, err := s.Process(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}
