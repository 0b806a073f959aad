// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"maps"
	"slices"
	"sort"

	"github.com/samber/oops"
)

const fluidEpsilon = 1e-9

// Reservoir holds substances by amount up to a capacity.
type Reservoir struct {
	Capacity    float64            `yaml:"capacity"`
	Contents    map[string]float64 `yaml:"contents"`
	Temperature float64            `yaml:"temperature"`
}

func newReservoir() Reservoir {
	return Reservoir{Capacity: 100, Contents: map[string]float64{}, Temperature: StandardTemperature}
}

// Total returns the summed amount of every substance.
func (r *Reservoir) Total() float64 {
	var t float64
	for _, v := range r.Contents {
		t += v
	}
	return t
}

// Headroom returns the free capacity.
func (r *Reservoir) Headroom() float64 { return max(0, r.Capacity-r.Total()) }

// Amount returns how much of substance is held.
func (r *Reservoir) Amount(substance string) float64 { return r.Contents[substance] }

// Substances returns the held substance names, sorted.
func (r *Reservoir) Substances() []string {
	names := slices.Collect(maps.Keys(r.Contents))
	sort.Strings(names)
	return names
}

// Add stores amount of substance. Non-positive amounts and overflow are rejected.
func (r *Reservoir) Add(substance string, amount float64) error {
	if amount <= 0 {
		return oops.Code("INVALID_ARGS").With("amount", amount).Errorf("amount must be positive")
	}
	if r.Total()+amount > r.Capacity+fluidEpsilon {
		return oops.Code("CONTAINER_FULL").With("substance", substance).With("amount", amount).
			Errorf("not enough room for %.1f units of %s", amount, substance)
	}
	if r.Contents == nil {
		r.Contents = map[string]float64{}
	}
	r.Contents[substance] += amount
	return nil
}

// Remove takes amount of substance out. Non-positive amounts and shortfalls are rejected.
func (r *Reservoir) Remove(substance string, amount float64) error {
	if amount <= 0 {
		return oops.Code("INVALID_ARGS").With("amount", amount).Errorf("amount must be positive")
	}
	have := r.Contents[substance]
	if have+fluidEpsilon < amount {
		return oops.Code("NOT_FOUND").With("substance", substance).With("have", have).
			Errorf("only %.1f units of %s present", have, substance)
	}
	if left := have - amount; left > fluidEpsilon {
		r.Contents[substance] = left
	} else {
		delete(r.Contents, substance)
	}
	return nil
}

// FluidContainer is a plumbing tank.
type FluidContainer struct {
	Base      `yaml:"-"`
	Reservoir `yaml:",inline"`
}

// NewFluidContainer returns an empty 100-unit tank.
func NewFluidContainer() *FluidContainer { return &FluidContainer{Reservoir: newReservoir()} }

// Kind implements Component.
func (f *FluidContainer) Kind() Kind { return KindFluidContainer }

// ChemicalContainer is a beaker or dispenser whose contents react.
type ChemicalContainer struct {
	Base      `yaml:"-"`
	Reservoir `yaml:",inline"`
}

// NewChemicalContainer returns an empty 100-unit beaker at room temperature.
func NewChemicalContainer() *ChemicalContainer {
	return &ChemicalContainer{Reservoir: newReservoir()}
}

// Kind implements Component.
func (c *ChemicalContainer) Kind() Kind { return KindChemicalContainer }
