// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package events

import (
	"context"
	"time"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/systems/power"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Built-in event ids with station effects.
const (
	PowerFailure    = "power_failure"
	MeteorStrike    = "meteor_strike"
	DiseaseOutbreak = "disease_outbreak"
	SupplyShortage  = "supply_shortage"
)

const (
	effectsSubscriber      = "random-event-effects"
	defaultOutageDuration  = 30 * time.Second
	defaultShortageTicks   = 3
	defaultBreachSeverity  = 1.0
	defaultOutbreakVictims = 1
)

// PowerFailer cuts grids.
type PowerFailer interface {
	Status() []power.GridStatus
	CausePowerFailure(ctx context.Context, gridID string, d time.Duration, now time.Time) error
}

// Infector spreads diseases.
type Infector interface {
	Known() []string
	Infect(ctx context.Context, playerID, disease string) error
}

// Market reacts to supply shocks.
type Market interface {
	ApplyMarketEvent(ctx context.Context, item string, demandDelta float64, shortage int)
}

// Effects binds the built-in event ids to the subsystems they disturb. Nil
// fields leave that event without an effect.
type Effects struct {
	Power   PowerFailer
	Disease Infector
	Market  Market
	Clock   func() time.Time
}

// Wire subscribes the effects to w's bus and returns a function removing them.
//
// Params honoured: power_failure {grid_id, duration}; meteor_strike
// {room_id, severity}; disease_outbreak {disease, victims}; supply_shortage
// {item, demand_delta, duration}. Missing targets are chosen at random.
func (fx Effects) Wire(w *world.World) (func(), error) {
	if fx.Clock == nil {
		fx.Clock = time.Now
	}
	handlers := map[string]core.Handler{
		PowerFailure:    fx.powerFailure(w),
		MeteorStrike:    fx.meteorStrike(w),
		DiseaseOutbreak: fx.diseaseOutbreak(w),
		SupplyShortage:  fx.supplyShortage(),
	}
	bus := w.Bus()
	for id, h := range handlers {
		t, err := core.DefineTopic(id)
		if err != nil {
			return nil, err
		}
		bus.Subscribe(t, effectsSubscriber, h)
	}
	return func() { bus.UnsubscribeAll(effectsSubscriber) }, nil
}

func (fx Effects) powerFailure(w *world.World) core.Handler {
	return func(ctx context.Context, ev core.Event) error {
		if fx.Power == nil {
			return nil
		}
		grid := ev.Payload.String("grid_id")
		if grid == "" {
			grids := fx.Power.Status()
			if len(grids) == 0 {
				return nil
			}
			grid = grids[w.IntN(len(grids))].ID
		}
		d := defaultOutageDuration
		if ev.Payload.Has("duration") {
			d = time.Duration(ev.Payload.Float("duration") * float64(time.Second))
		}
		return fx.Power.CausePowerFailure(ctx, grid, d, fx.Clock())
	}
}

func (fx Effects) meteorStrike(w *world.World) core.Handler {
	return func(ctx context.Context, ev core.Event) error {
		room := ev.Payload.String("room_id")
		if room == "" {
			rooms := w.Rooms()
			if len(rooms) == 0 {
				return nil
			}
			room = rooms[w.IntN(len(rooms))].ID
		} else if !w.Has(room) {
			return oops.Code("NOT_FOUND").With("room_id", room).Errorf("meteor target %s does not exist", room)
		}
		sev := defaultBreachSeverity
		if ev.Payload.Has("severity") {
			sev = ev.Payload.Float("severity")
		}
		w.Publish(ctx, core.TopicBreach, core.Payload{"room_id": room, "severity": sev, "cause": MeteorStrike})
		return nil
	}
}

func (fx Effects) diseaseOutbreak(w *world.World) core.Handler {
	return func(ctx context.Context, ev core.Event) error {
		if fx.Disease == nil {
			return nil
		}
		disease := ev.Payload.String("disease")
		if disease == "" {
			known := fx.Disease.Known()
			if len(known) == 0 {
				return nil
			}
			disease = known[w.IntN(len(known))]
		}
		var alive []string
		for _, e := range w.Players() {
			if p, ok := world.As[*world.Player](e); ok && p.Alive && !p.HasDisease(disease) {
				alive = append(alive, e.ID)
			}
		}
		n := defaultOutbreakVictims
		if ev.Payload.Has("victims") {
			n = ev.Payload.Int("victims")
		}
		for i := 0; i < n && len(alive) > 0; i++ {
			j := w.IntN(len(alive))
			if err := fx.Disease.Infect(ctx, alive[j], disease); err != nil {
				return err
			}
			alive = append(alive[:j], alive[j+1:]...)
		}
		return nil
	}
}

func (fx Effects) supplyShortage() core.Handler {
	return func(ctx context.Context, ev core.Event) error {
		item := ev.Payload.String("item")
		if fx.Market == nil || item == "" {
			return nil
		}
		ticks := defaultShortageTicks
		if ev.Payload.Has("duration") {
			ticks = ev.Payload.Int("duration")
		}
		fx.Market.ApplyMarketEvent(ctx, item, ev.Payload.Float("demand_delta"), ticks)
		return nil
	}
}
