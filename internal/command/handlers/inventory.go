// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

// GetHandler picks an item up from the floor or out of a container.
// Usage: get <item> [from <container>]
func GetHandler(ctx context.Context, exec *command.CommandExecution) error {
	args := strings.TrimSpace(exec.Args)
	if args == "" {
		return command.ErrPrecondition("Get what?")
	}
	e, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	if what, from, ok := command.SplitPrep(args, "from"); ok {
		return takeFromContainer(ctx, exec, e, p, what, from)
	}

	target, ok := findHere(exec, args)
	if !ok {
		return command.ErrPrecondition("You don't see a '" + args + "'.")
	}
	item, ok := world.As[*world.Item](target)
	if !ok || !item.Takeable {
		return command.ErrPrecondition("You can't take the " + label(target) + ".")
	}
	if err := exec.Services.World.GiveItem(ctx, e.ID, target.ID); err != nil {
		return err
	}
	writeOutputf(ctx, exec, "get", "You take the %s.\n", label(target))
	return nil
}

func takeFromContainer(ctx context.Context, exec *command.CommandExecution, e *world.Entity, p *world.Player, what, from string) error {
	w := exec.Services.World
	ce, ok := findNear(exec, p, from)
	if !ok {
		return command.ErrPrecondition("You don't see a '" + from + "'.")
	}
	c, ok := world.As[*world.Container](ce)
	if !ok {
		return command.ErrPrecondition("The " + label(ce) + " is not a container.")
	}
	target, ok := pick(w, c.ItemIDs(), what)
	if !ok {
		return command.ErrPrecondition(fmt.Sprintf("There is no %s in %s.", what, label(ce)))
	}
	if len(p.Inventory) >= p.MaxInventory {
		return command.ErrPrecondition("Your inventory is full.")
	}
	if err := w.TakeOut(ctx, ce.ID, target.ID, "", w.AccessLevel(e.ID)); err != nil {
		return err
	}
	if err := w.GiveItem(ctx, e.ID, target.ID); err != nil {
		// Put it back rather than leave it nowhere.
		if perr := w.PutInto(ctx, ce.ID, target.ID, w.AccessLevel(e.ID)); perr != nil {
			errutil.LogAt(ctx, nil, slog.LevelError, "failed to return item to container", perr)
		}
		return err
	}
	writeOutputf(ctx, exec, "get", "You take the %s from %s.\n", label(target), label(ce))
	return nil
}

// DropHandler puts a carried item on the floor.
func DropHandler(ctx context.Context, exec *command.CommandExecution) error {
	name := strings.TrimSpace(exec.Args)
	if name == "" {
		return command.ErrPrecondition("Drop what?")
	}
	e, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	target, ok := findCarried(exec, p, name)
	if !ok {
		return command.ErrPrecondition("You aren't carrying " + name + ".")
	}
	if !p.HasItem(target.ID) {
		return command.ErrPrecondition("You need to remove the " + label(target) + " first.")
	}
	if err := exec.Services.World.DropItem(ctx, e.ID, target.ID, exec.Room()); err != nil {
		return err
	}
	writeOutputf(ctx, exec, "drop", "You drop the %s.\n", label(target))
	return nil
}

// PutHandler places a carried item in a container.
// Usage: put <item> in <container>
func PutHandler(ctx context.Context, exec *command.CommandExecution) error {
	what, into, ok := command.SplitPrep(exec.Args, "in", "into")
	if !ok {
		return command.ErrInvalidArgs("put", "put <item> in <container>")
	}
	e, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	w := exec.Services.World
	item, ok := findCarried(exec, p, what)
	if !ok || !p.HasItem(item.ID) {
		return command.ErrPrecondition("You aren't carrying " + what + ".")
	}
	ce, ok := findNear(exec, p, into)
	if !ok {
		return command.ErrPrecondition("You don't see a '" + into + "'.")
	}
	if ce.ID == item.ID {
		return command.ErrPrecondition("You can't put something inside itself.")
	}
	if _, ok := world.As[*world.Container](ce); !ok {
		return command.ErrPrecondition("The " + label(ce) + " is not a container.")
	}

	if err := w.DropItem(ctx, e.ID, item.ID, ""); err != nil {
		return err
	}
	if err := w.PutInto(ctx, ce.ID, item.ID, w.AccessLevel(e.ID)); err != nil {
		if gerr := w.GiveItem(ctx, e.ID, item.ID); gerr != nil {
			errutil.LogAt(ctx, nil, slog.LevelError, "failed to return item to inventory", gerr)
		}
		if errutil.HasCode(err, command.CodeContainerFull) {
			return oops.Code(command.CodeContainerFull).
				With("container_id", ce.ID).
				With("message", label(ce)+" can't hold any more items.").
				Errorf("%s is full", ce.ID)
		}
		return err
	}
	writeOutputf(ctx, exec, "put", "You put the %s in %s.\n", label(item), label(ce))
	return nil
}

// InventoryHandler lists what the character carries and wears.
func InventoryHandler(ctx context.Context, exec *command.CommandExecution) error {
	_, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	w := exec.Services.World
	if len(p.Inventory) == 0 && len(p.Equipment) == 0 {
		writeOutput(ctx, exec, "inventory", "You are empty-handed.")
		return nil
	}
	if len(p.Inventory) > 0 {
		writeOutputf(ctx, exec, "inventory", "You are carrying (%d/%d):\n", len(p.Inventory), p.MaxInventory)
		for _, id := range p.Inventory {
			name := id
			if ie, ok := w.Get(id); ok {
				name = label(ie)
			}
			writeOutputf(ctx, exec, "inventory", "- %s\n", name)
		}
	}
	if len(p.Equipment) > 0 {
		slots := make([]string, 0, len(p.Equipment))
		for slot := range p.Equipment {
			slots = append(slots, slot)
		}
		sort.Strings(slots)
		writeOutput(ctx, exec, "inventory", "You are wearing:")
		for _, slot := range slots {
			name := p.Equipment[slot]
			if ie, ok := w.Get(name); ok {
				name = label(ie)
			}
			writeOutputf(ctx, exec, "inventory", "- %s: %s\n", slot, name)
		}
	}
	return nil
}

// WearHandler equips a carried item in a slot.
// Usage: wear <item> [on <slot>]
func WearHandler(ctx context.Context, exec *command.CommandExecution) error {
	what, slot, ok := command.SplitPrep(exec.Args, "on")
	if what == "" {
		return command.ErrInvalidArgs("wear", "wear <item> [on <slot>]")
	}
	_, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	item, found := findCarried(exec, p, what)
	if !found || !p.HasItem(item.ID) {
		return command.ErrPrecondition("You aren't carrying " + what + ".")
	}
	if !ok {
		slot = "body"
		if it, isItem := world.As[*world.Item](item); isItem && it.ItemType != "" && it.ItemType != "misc" {
			slot = it.ItemType
		}
	}
	if err := p.Equip(slot, item.ID); err != nil {
		return err
	}
	writeOutputf(ctx, exec, "wear", "You put on the %s.\n", label(item))
	return nil
}

// RemoveHandler unequips whatever is in a slot, or a named worn item.
func RemoveHandler(ctx context.Context, exec *command.CommandExecution) error {
	name := strings.TrimSpace(exec.Args)
	if name == "" {
		return command.ErrInvalidArgs("remove", "remove <item|slot>")
	}
	_, p, err := exec.Avatar()
	if err != nil {
		return err
	}
	slot := strings.ToLower(name)
	if _, ok := p.Equipment[slot]; !ok {
		slot = ""
		for s, id := range p.Equipment {
			if ie, ok := exec.Services.World.Get(id); ok && matches(ie, name) {
				slot = s
				break
			}
		}
	}
	if slot == "" {
		return command.ErrPrecondition("You aren't wearing " + name + ".")
	}
	id, err := p.Unequip(slot)
	if err != nil {
		return err
	}
	shown := id
	if ie, ok := exec.Services.World.Get(id); ok {
		shown = label(ie)
	}
	writeOutputf(ctx, exec, "remove", "You take off the %s.\n", shown)
	return nil
}
