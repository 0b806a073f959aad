// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// Item types with built-in use behaviour.
const (
	itemMedical    = "medical"
	itemFood       = "food"
	itemDiagnostic = "diagnostic"
)

// UseHandler uses a carried or nearby item.
// Usage: use <item>
func UseHandler(ctx context.Context, exec *command.CommandExecution) error {
	name := strings.TrimSpace(exec.Args)
	if name == "" {
		return command.ErrPrecondition("Use what? Specify an item to use.")
	}
	e, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	target, ok := findNear(exec, p, name)
	if !ok {
		return errNotHere(name)
	}
	item, ok := world.As[*world.Item](target)
	if !ok || !item.Usable {
		return command.ErrPrecondition(fmt.Sprintf("The %s cannot be used.", label(target)))
	}

	w := exec.Services.World
	switch item.ItemType {
	case itemMedical:
		return useMedical(ctx, exec, e, p, target, item)
	case itemFood:
		p.AdjustStat(ctx, w, world.StatNutrition, item.Float(world.PropNutrition))
		if err := consume(ctx, exec, e, p, target); err != nil {
			return err
		}
		writeOutputf(ctx, exec, "use", "You eat the %s.\n", label(target))
		return nil
	case itemDiagnostic:
		writeOutput(ctx, exec, "use", diagnose(p))
		return nil
	}

	w.Publish(ctx, core.TopicItemUsed, core.Payload{"item_id": target.ID, "player_id": e.ID, "item_type": item.ItemType})
	if item.UseEffect != "" {
		writeOutput(ctx, exec, "use", item.UseEffect)
		return nil
	}
	writeOutputf(ctx, exec, "use", "You use the %s.\n", label(target))
	return nil
}

func useMedical(ctx context.Context, exec *command.CommandExecution, e *world.Entity, p *world.Player, target *world.Entity, item *world.Item) error {
	_, metered := item.Properties[world.PropDoses]
	doses := item.Int(world.PropDoses)
	if metered && doses <= 0 {
		return command.ErrPrecondition(fmt.Sprintf("The %s is empty.", label(target)))
	}

	w := exec.Services.World
	p.Heal(ctx, w, item.Float(world.PropHeal))
	for _, d := range item.Strings(world.PropCures) {
		if !p.HasDisease(d) {
			continue
		}
		if exec.Services.Disease != nil {
			if err := exec.Services.Disease.Cure(ctx, e.ID, d); err != nil {
				return err
			}
			continue
		}
		p.Diseases = slices.DeleteFunc(p.Diseases, func(s string) bool { return s == d })
		w.Publish(ctx, core.TopicDiseaseCured, core.Payload{"player_id": e.ID, "disease": d})
	}
	if metered {
		item.SetProperty(world.PropDoses, doses-1)
	}
	w.Publish(ctx, core.TopicItemUsed, core.Payload{"item_id": target.ID, "player_id": e.ID, "item_type": item.ItemType})
	writeOutputf(ctx, exec, "use", "You use the %s.\n", label(target))
	if metered && doses-1 == 0 {
		writeOutputf(ctx, exec, "use", "The %s is empty.\n", label(target))
	}
	return nil
}

// consume removes an eaten item from wherever it was and from the world.
func consume(ctx context.Context, exec *command.CommandExecution, e *world.Entity, p *world.Player, target *world.Entity) error {
	w := exec.Services.World
	if p.HasItem(target.ID) {
		if err := w.DropItem(ctx, e.ID, target.ID, ""); err != nil {
			return err
		}
	}
	return w.Remove(ctx, target.ID)
}

func diagnose(p *world.Player) string {
	var status []string
	parts := make([]string, 0, len(p.Damage))
	for part := range p.Damage {
		parts = append(parts, part)
	}
	slices.Sort(parts)
	for _, part := range parts {
		d := p.Damage[part]
		for _, v := range []struct {
			kind string
			val  float64
		}{
			{world.DamageBrute, d.Brute}, {world.DamageBurn, d.Burn},
			{world.DamageToxin, d.Toxin}, {world.DamageOxygen, d.Oxygen},
		} {
			if v.val > 0 {
				status = append(status, fmt.Sprintf("%s %s: %g", part, v.kind, v.val))
			}
		}
	}
	if len(p.Diseases) > 0 {
		status = append(status, "Diseases: "+strings.Join(p.Diseases, ", "))
	}
	if len(status) == 0 {
		return "No issues detected."
	}
	return strings.Join(status, "; ")
}
