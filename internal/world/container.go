// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/core"
)

// Container holds item ids. It carries its own mutex so the capacity and
// no-duplicate rules hold under concurrent handlers.
type Container struct {
	Base        `yaml:"-"`
	Capacity    int      `yaml:"capacity"`
	Items       []string `yaml:"items"`
	Open        bool     `yaml:"is_open"`
	Locked      bool     `yaml:"is_locked"`
	AccessLevel int      `yaml:"access_level"`

	mu sync.Mutex
}

// NewContainer returns an open, empty container with capacity 10.
func NewContainer() *Container {
	return &Container{Capacity: 10, Items: []string{}, Open: true}
}

// Kind implements Component.
func (c *Container) Kind() Kind { return KindContainer }

// AddItem stores id. It fails when the id is already present or the
// container is full.
func (c *Container) AddItem(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Items) >= c.Capacity || slices.Contains(c.Items, id) {
		return false
	}
	c.Items = append(c.Items, id)
	return true
}

// RemoveItem takes id out. It fails when id is not present.
func (c *Container) RemoveItem(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.Index(c.Items, id)
	if i < 0 {
		return false
	}
	c.Items = slices.Delete(c.Items, i, i+1)
	return true
}

// Contains reports whether id is stored.
func (c *Container) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.Items, id)
}

// ItemIDs returns a copy of the stored ids in insertion order.
func (c *Container) ItemIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.Items)
}

// Full reports whether no more items fit.
func (c *Container) Full() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Items) >= c.Capacity
}

// PutInto moves itemID into the container entity containerID. The item's
// location becomes empty while it is contained.
func (w *World) PutInto(ctx context.Context, containerID, itemID string, access int) error {
	ce, err := w.Lookup(containerID)
	if err != nil {
		return err
	}
	c, ok := As[*Container](ce)
	if !ok {
		return oops.Code("NOT_A_CONTAINER").With("object_id", containerID).Errorf("%s is not a container", ce.Name)
	}
	item, err := w.Lookup(itemID)
	if err != nil {
		return err
	}
	if err := c.checkAccess(ce, access); err != nil {
		return err
	}
	if c.Contains(itemID) {
		return oops.Code("ALREADY_PRESENT").With("container_id", containerID).With("item_id", itemID).
			Errorf("%s is already in the %s", item.Name, ce.Name)
	}
	if !c.AddItem(itemID) {
		return oops.Code("CONTAINER_FULL").With("container_id", containerID).With("capacity", c.Capacity).
			Errorf("the %s is full", ce.Name)
	}
	if item.Location != "" {
		if err := w.MoveTo(ctx, itemID, ""); err != nil {
			c.RemoveItem(itemID)
			return err
		}
	}
	w.grid.Remove(itemID)
	w.bus.Publish(ctx, core.TopicContainerItemAdded, core.Payload{"container_id": containerID, "item_id": itemID})
	return nil
}

// TakeOut removes itemID from the container. When dest is non-empty the item
// is placed in that room; otherwise it stays owned (by an inventory).
func (w *World) TakeOut(ctx context.Context, containerID, itemID, dest string, access int) error {
	ce, err := w.Lookup(containerID)
	if err != nil {
		return err
	}
	c, ok := As[*Container](ce)
	if !ok {
		return oops.Code("NOT_A_CONTAINER").With("object_id", containerID).Errorf("%s is not a container", ce.Name)
	}
	if err := c.checkAccess(ce, access); err != nil {
		return err
	}
	if !c.RemoveItem(itemID) {
		return oops.Code("NOT_FOUND").With("container_id", containerID).With("item_id", itemID).
			Errorf("that is not in the %s", ce.Name)
	}
	if dest != "" {
		if err := w.MoveTo(ctx, itemID, dest); err != nil {
			c.AddItem(itemID)
			return err
		}
	}
	w.bus.Publish(ctx, core.TopicContainerItemRemoved, core.Payload{"container_id": containerID, "item_id": itemID})
	return nil
}

func (c *Container) checkAccess(ce *Entity, access int) error {
	if c.Locked && access < c.AccessLevel {
		return oops.Code("LOCKED").With("container_id", ce.ID).With("required", c.AccessLevel).
			Errorf("the %s is locked", ce.Name)
	}
	if !c.Open {
		return oops.Code("PRECONDITION").With("container_id", ce.ID).Errorf("the %s is closed", ce.Name)
	}
	return nil
}
