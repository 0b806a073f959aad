// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"context"
	"fmt"
	"slices"

	"github.com/yakuzadave/pymud-ss13/internal/core"
)

// Well-known item property keys.
const (
	PropAccessLevel         = "access_level"
	PropBiohazardProtection = "biohazard_protection"
	PropRadiationProtection = "radiation_protection"
	PropHeal                = "heal"
	PropCures               = "cures"
	PropDoses               = "doses"
	PropNutrition           = "nutrition"
)

// Item is anything that can lie on the floor or be carried. Properties holds
// the genuinely schemaless fields.
type Item struct {
	Base       `yaml:"-"`
	Weight     float64        `yaml:"weight"`
	Takeable   bool           `yaml:"takeable"`
	Usable     bool           `yaml:"usable"`
	UseEffect  string         `yaml:"use_effect,omitempty"`
	ItemType   string         `yaml:"item_type"`
	Properties map[string]any `yaml:"item_properties,omitempty"`
}

// NewItem returns a takeable misc item weighing 1.
func NewItem() *Item {
	return &Item{Weight: 1, Takeable: true, ItemType: "misc"}
}

// Kind implements Component.
func (i *Item) Kind() Kind { return KindItem }

// Float returns a numeric property.
func (i *Item) Float(key string) float64 {
	switch v := i.Properties[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// Int returns a numeric property truncated to int.
func (i *Item) Int(key string) int { return int(i.Float(key)) }

// Flag returns a boolean property.
func (i *Item) Flag(key string) bool {
	v, _ := i.Properties[key].(bool)
	return v
}

// Strings returns a list property.
func (i *Item) Strings(key string) []string {
	switch v := i.Properties[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, s := range v {
			out = append(out, fmt.Sprint(s))
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}

// SetProperty sets a schemaless property.
func (i *Item) SetProperty(key string, value any) {
	if i.Properties == nil {
		i.Properties = map[string]any{}
	}
	i.Properties[key] = value
}

// IDCard grants an access level to whoever carries it.
type IDCard struct {
	Base        `yaml:"-"`
	AccessLevel int    `yaml:"access_level"`
	Holder      string `yaml:"holder,omitempty"`
	Job         string `yaml:"job,omitempty"`
}

// Kind implements Component.
func (c *IDCard) Kind() Kind { return KindIDCard }

// Access restricts use of its owner to a level and optional role list.
type Access struct {
	Base          `yaml:"-"`
	RequiredLevel int      `yaml:"required_level"`
	AllowedRoles  []string `yaml:"allowed_roles,omitempty"`
}

// Kind implements Component.
func (a *Access) Kind() Kind { return KindAccess }

// Check reports whether level or role is sufficient.
func (a *Access) Check(level int, role string) bool {
	if level >= a.RequiredLevel {
		return true
	}
	return role != "" && slices.Contains(a.AllowedRoles, role)
}

// Authorize checks playerID against the access record, publishing the result.
func (a *Access) Authorize(ctx context.Context, w *World, playerID string) bool {
	level := w.AccessLevel(playerID)
	role := ""
	if pe, ok := w.Get(playerID); ok {
		if p, ok := As[*Player](pe); ok {
			role = p.Role
		}
	}
	topic := core.TopicAccessDenied
	ok := a.Check(level, role)
	if ok {
		topic = core.TopicAccessGranted
	}
	w.bus.Publish(ctx, topic, core.Payload{
		"object_id": a.Owner(), "player_id": playerID, "required": a.RequiredLevel, "level": level,
	})
	return ok
}

// AccessLevel returns the best access level available to playerID: the
// player's own level or any carried or equipped ID card.
func (w *World) AccessLevel(playerID string) int {
	pe, ok := w.Get(playerID)
	if !ok {
		return 0
	}
	p, ok := As[*Player](pe)
	if !ok {
		return 0
	}
	level := p.AccessLevel
	for _, id := range p.Carried() {
		ie, ok := w.Get(id)
		if !ok {
			continue
		}
		if card, ok := As[*IDCard](ie); ok {
			level = max(level, card.AccessLevel)
		}
		if item, ok := As[*Item](ie); ok {
			level = max(level, item.Int(PropAccessLevel))
		}
	}
	return level
}

// HasProtection reports whether playerID carries or wears an item whose
// property flag is set. Item ids or types named after the flag count too
// (hazmat_suit and rad_suit protect from radiation).
func (w *World) HasProtection(playerID, flag string) bool {
	pe, ok := w.Get(playerID)
	if !ok {
		return false
	}
	p, ok := As[*Player](pe)
	if !ok {
		return false
	}
	for _, id := range p.Carried() {
		if flag == PropRadiationProtection && (id == "hazmat_suit" || id == "rad_suit") {
			return true
		}
		ie, ok := w.Get(id)
		if !ok {
			continue
		}
		if item, ok := As[*Item](ie); ok && item.Flag(flag) {
			return true
		}
	}
	return false
}
