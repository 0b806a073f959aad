// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package maintenance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/systems/maintenance"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/internal/world/worldtest"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

var t0 = time.Unix(1_700_000_000, 0).UTC()

func workshop(t *testing.T) (*worldtest.Fixture, *maintenance.System, *world.Maintainable) {
	t.Helper()
	f := worldtest.New(t)
	f.Room("engineering")
	m := world.NewMaintainable(t0)
	f.Add("pump", "engineering", m)
	return f, maintenance.New(f.World), m
}

func TestMaintenance_TickWearsAndFails(t *testing.T) {
	f, s, m := workshop(t)
	m.Condition = 20.05

	require.NoError(t, s.Tick(f.Ctx, t0))

	assert.InDelta(t, 19.95, m.Condition, 1e-9)
	assert.False(t, m.Operational)
	assert.Equal(t, 1, f.Count(core.TopicEquipmentFailed))

	require.NoError(t, s.Tick(f.Ctx, t0.Add(time.Minute)))
	assert.InDelta(t, 19.95, m.Condition, 1e-9)
	assert.Equal(t, 1, f.Count(core.TopicEquipmentFailed))
}

func TestMaintenance_DueReportedOncePerPeriod(t *testing.T) {
	f, s, _ := workshop(t)

	for i := range 3 {
		require.NoError(t, s.Tick(f.Ctx, t0.Add(11*time.Minute+time.Duration(i)*time.Minute)))
	}

	due := f.Rec.ByTopic(core.TopicMaintenanceDue)
	require.Len(t, due, 1)
	assert.Equal(t, "engineering", due[0].Payload.String("room_id"))
}

func TestMaintenance_ServiceNeedsSkill(t *testing.T) {
	f, s, m := workshop(t)
	f.Player("novice", "engineering")
	eng := f.Player("eng", "engineering")
	eng.Skills = map[string]int{"engineering": 2}
	m.Condition = 10
	m.Operational = false

	out, err := s.Service(f.Ctx, "novice", "pump", t0)
	require.NoError(t, err)
	assert.Equal(t, "You don't know how to service that.", out.Text)
	assert.False(t, m.Operational)

	out, err = s.Service(f.Ctx, "eng", "pump", t0)
	require.NoError(t, err)
	assert.Equal(t, "You service the pump. It is in perfect condition.", out.Text)
	assert.True(t, m.Operational)
	assert.InDelta(t, 100.0, m.Condition, 1e-9)
	assert.Equal(t, 1, f.Count(core.TopicEquipmentRepaired))
}

func TestMaintenance_Inspect(t *testing.T) {
	f, s, _ := workshop(t)
	f.Item("rock", "engineering", nil)

	out, err := s.Inspect("pump", t0)
	require.NoError(t, err)
	assert.Equal(t, "The pump is operational at 100% condition, next service 10m0s.", out)

	out, err = s.Inspect("pump", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Contains(t, out, "service overdue")

	_, err = s.Inspect("rock", t0)
	errutil.AssertErrorCode(t, err, "NOT_MAINTAINABLE")
}
