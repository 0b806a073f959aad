// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package maintenance wears down equipment and lets engineers service it.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// IdleWear is the intensity applied to every operational machine per tick.
const IdleWear = 0.1

// ServiceSkill is the skill checked by Service.
const ServiceSkill = "engineering"

// System drives world.Maintainable components.
type System struct {
	w *world.World
}

// New creates a maintenance system for w.
func New(w *world.World) *System { return &System{w: w} }

// Tick wears every operational machine and reports newly overdue ones.
func (s *System) Tick(ctx context.Context, now time.Time) error {
	for _, e := range s.w.Having(world.KindMaintainable) {
		m, ok := world.As[*world.Maintainable](e)
		if !ok {
			continue
		}
		m.Use(ctx, s.w, IdleWear)
		if m.Due(now) {
			s.w.Publish(ctx, core.TopicMaintenanceDue, core.Payload{
				"object_id": e.ID, "room_id": s.w.RoomOf(e.ID), "condition": m.Condition,
			})
		}
	}
	return nil
}

func (s *System) machine(id string) (*world.Entity, *world.Maintainable, error) {
	e, err := s.w.Lookup(id)
	if err != nil {
		return nil, nil, err
	}
	m, ok := world.As[*world.Maintainable](e)
	if !ok {
		return nil, nil, oops.Code("NOT_MAINTAINABLE").With("object_id", id).Errorf("the %s cannot be serviced", e.Name)
	}
	return e, m, nil
}

// Service has playerID service objectID using their engineering skill.
func (s *System) Service(ctx context.Context, playerID, objectID string, now time.Time) (world.Outcome, error) {
	pe, err := s.w.Lookup(playerID)
	if err != nil {
		return world.Outcome{}, err
	}
	p, ok := world.As[*world.Player](pe)
	if !ok {
		return world.Outcome{}, oops.Code("NOT_A_PLAYER").With("object_id", playerID).Errorf("%s is not a player", playerID)
	}
	_, m, err := s.machine(objectID)
	if err != nil {
		return world.Outcome{}, err
	}
	return m.Service(ctx, s.w, playerID, p.Skill(ServiceSkill), now), nil
}

// Inspect describes a machine's condition.
func (s *System) Inspect(objectID string, now time.Time) (string, error) {
	e, m, err := s.machine(objectID)
	if err != nil {
		return "", err
	}
	state := "operational"
	if !m.Operational {
		state = "broken down"
	}
	due := "next service " + m.NextService.Sub(now).Round(time.Second).String()
	if !now.Before(m.NextService) {
		due = "service overdue"
	}
	return fmt.Sprintf("The %s is %s at %.0f%% condition, %s.", e.Name, state, m.Condition, due), nil
}
