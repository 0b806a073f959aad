// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package kitchen turns carried ingredients into meals and drinks.
package kitchen

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Recipe is a row of recipes.yaml or drink_recipes.yaml.
type Recipe struct {
	Output    string   `yaml:"output" json:"output" jsonschema:"required"`
	Inputs    []string `yaml:"inputs" json:"inputs" jsonschema:"required,minItems=1"`
	Nutrition float64  `yaml:"nutrition,omitempty" json:"nutrition,omitempty"`
}

// Station kinds.
const (
	Food  = "food"
	Drink = "drink"
)

const (
	msgLacking = "You lack some ingredients."
	msgUnknown = "No known recipe for those ingredients."
)

const (
	defaultMealNutrition  = 10
	defaultDrinkNutrition = 1
)

// Station is a kitchen or a bar: a recipe book plus the rules for what it
// produces.
type Station struct {
	mu      sync.RWMutex
	w       *world.World
	kind    string
	recipes []Recipe
}

// NewKitchen returns a food station.
func NewKitchen(w *world.World, recipes []Recipe) *Station {
	return newStation(w, Food, recipes)
}

// NewBar returns a drink station.
func NewBar(w *world.World, recipes []Recipe) *Station {
	return newStation(w, Drink, recipes)
}

func newStation(w *world.World, kind string, recipes []Recipe) *Station {
	s := &Station{w: w, kind: kind}
	for _, r := range recipes {
		_ = s.Register(r)
	}
	return s
}

// Register adds a recipe. Later recipes for the same output replace earlier
// ones.
func (s *Station) Register(r Recipe) error {
	if r.Output == "" || len(r.Inputs) == 0 {
		return oops.Code("INVALID_ARGS").With("output", r.Output).Errorf("recipe needs an output and inputs")
	}
	r.Inputs = normalize(r.Inputs)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes = slices.DeleteFunc(s.recipes, func(o Recipe) bool { return o.Output == r.Output })
	s.recipes = append(s.recipes, r)
	return nil
}

// Recipes returns the registered recipes.
func (s *Station) Recipes() []Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.recipes)
}

func normalize(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(strings.TrimSpace(n))
	}
	sort.Strings(out)
	return out
}

func (s *Station) match(ingredients []string) (Recipe, bool) {
	want := normalize(ingredients)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.recipes {
		if slices.Equal(r.Inputs, want) {
			return r, true
		}
	}
	return Recipe{}, false
}

// Prepare makes whatever recipe exactly matches ingredients from the
// player's inventory. The returned Outcome carries the message for the
// player; err is reserved for failures outside the player's control.
func (s *Station) Prepare(ctx context.Context, playerID string, ingredients []string) (world.Outcome, error) {
	pe, err := s.w.Lookup(playerID)
	if err != nil {
		return world.Outcome{}, err
	}
	p, ok := world.As[*world.Player](pe)
	if !ok {
		return world.Outcome{}, oops.Code("NOT_A_PLAYER").With("object_id", playerID).Errorf("%s is not a player", playerID)
	}
	recipe, ok := s.match(ingredients)
	if !ok {
		return world.Outcome{Text: msgUnknown}, nil
	}
	used, ok := s.resolve(p, recipe.Inputs)
	if !ok {
		return world.Outcome{Text: msgLacking}, nil
	}
	id, err := s.produce(ctx, recipe)
	if err != nil {
		return world.Outcome{}, err
	}
	// Ingredients leave the inventory before the dish goes in, and are only
	// destroyed once it has.
	carried := slices.Clone(p.Inventory)
	for _, in := range used {
		p.RemoveFromInventory(in)
	}
	if err := s.w.GiveItem(ctx, playerID, id); err != nil {
		p.Inventory = carried
		if rmErr := s.w.Remove(ctx, id); rmErr != nil {
			slog.Warn("failed to discard undelivered dish", "item_id", id, "error", rmErr)
		}
		return world.Outcome{}, err
	}
	for _, in := range used {
		if !s.w.Has(in) {
			continue
		}
		if err := s.w.Remove(ctx, in); err != nil {
			return world.Outcome{}, err
		}
	}
	label := strings.ReplaceAll(recipe.Output, "_", " ")
	if s.kind == Drink {
		s.w.Publish(ctx, core.TopicDrinkMixed, core.Payload{"drink": recipe.Output, "player_id": playerID, "item_id": id})
		return world.Outcome{OK: true, Text: fmt.Sprintf("You mix a %s.", label)}, nil
	}
	s.w.Publish(ctx, core.TopicMealCooked, core.Payload{"meal": recipe.Output, "player_id": playerID, "item_id": id})
	return world.Outcome{OK: true, Text: fmt.Sprintf("You cook a %s.", label)}, nil
}

// resolve maps each input name to a distinct carried item whose id or name
// matches it.
func (s *Station) resolve(p *world.Player, inputs []string) ([]string, bool) {
	used := make([]string, 0, len(inputs))
	for _, in := range inputs {
		found := ""
		for _, id := range p.Inventory {
			if slices.Contains(used, id) {
				continue
			}
			if strings.EqualFold(id, in) {
				found = id
				break
			}
			if e, ok := s.w.Get(id); ok && strings.EqualFold(e.Name, in) {
				found = id
				break
			}
		}
		if found == "" {
			return nil, false
		}
		used = append(used, found)
	}
	return used, true
}

func (s *Station) produce(ctx context.Context, r Recipe) (string, error) {
	prefix, itemType, nutrition := "meal", "food", r.Nutrition
	if s.kind == Drink {
		prefix, itemType = "drink", "drink"
		if nutrition == 0 {
			nutrition = defaultDrinkNutrition
		}
	} else if nutrition == 0 {
		nutrition = defaultMealNutrition
	}
	label := strings.ReplaceAll(r.Output, "_", " ")
	id := s.w.NextSerial(prefix)
	e := world.NewEntity(id, label, "a "+label)
	item := world.NewItem()
	item.ItemType = itemType
	item.Usable = true
	if s.kind == Drink {
		item.UseEffect = fmt.Sprintf("You drink the %s.", label)
	}
	item.SetProperty(world.PropNutrition, nutrition)
	e.MustAdd(item)
	if err := s.w.Register(ctx, e); err != nil {
		return "", err
	}
	return id, nil
}
