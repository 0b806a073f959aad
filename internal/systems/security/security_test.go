// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package security_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/systems/security"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/internal/world/worldtest"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

var t0 = time.Unix(1_700_000_000, 0)

type memLog struct {
	entries []security.AccessEntry
	fail    bool
}

func (m *memLog) Record(_ context.Context, e security.AccessEntry) error {
	if m.fail {
		return errors.New("disk full")
	}
	m.entries = append(m.entries, e)
	return nil
}

func office(t *testing.T, opts ...security.Option) (*worldtest.Fixture, *security.System) {
	t.Helper()
	f := worldtest.New(t)
	f.Room("hall", "north", "vault")
	f.Room("vault", "south", "hall")
	f.Room("brig")
	opts = append([]security.Option{security.WithClock(func() time.Time { return t0 })}, opts...)
	s := security.New(f.World, opts...)
	t.Cleanup(s.Close)
	return f, s
}

func TestSecurity_MotionAlertDispatchedOnTick(t *testing.T) {
	f, s := office(t)
	f.Add("sensor1", "vault", world.NewMotionSensor())
	f.Player("alice", "hall")
	f.Item("crate", "hall", nil)

	require.NoError(t, f.World.MoveTo(f.Ctx, "crate", "vault"))
	assert.Empty(t, s.PendingAlerts())

	require.NoError(t, f.World.MoveTo(f.Ctx, "alice", "vault"))
	alerts := s.PendingAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "alice", alerts[0].PlayerID)
	assert.Equal(t, 1, f.Count(core.TopicMotionDetected))

	require.NoError(t, s.Tick(f.Ctx, t0))
	dispatch := f.Rec.ByTopic(core.TopicSecurityDispatch)
	require.Len(t, dispatch, 1)
	assert.Equal(t, "vault", dispatch[0].Payload.String("room_id"))
	assert.Empty(t, s.PendingAlerts())
}

func TestSecurity_InactiveSensorIgnoresMotion(t *testing.T) {
	f, s := office(t)
	sensor := world.NewMotionSensor()
	sensor.Active = false
	f.Add("sensor1", "vault", sensor)
	f.Player("alice", "hall")

	require.NoError(t, f.World.MoveTo(f.Ctx, "alice", "vault"))

	assert.Empty(t, s.PendingAlerts())
}

func TestSecurity_DoorEventsAreLogged(t *testing.T) {
	log := &memLog{}
	f, s := office(t, security.WithAccessLog(log))
	door := world.NewDoor()
	door.Destination = "vault"
	f.Add("vault_door", "hall", door)
	f.Player("alice", "hall")

	require.True(t, door.TryOpen(f.Ctx, f.World, "alice", 0).OK)
	require.True(t, door.Close(f.Ctx, f.World, "alice").OK)

	entries := s.AccessLog(0)
	require.Len(t, entries, 2)
	assert.Equal(t, "opened", entries[0].Action)
	assert.Equal(t, "closed", entries[1].Action)
	assert.Equal(t, "hall", entries[0].RoomID)
	assert.Equal(t, entries, log.entries)
	assert.Len(t, s.AccessLog(1), 1)
}

func TestSecurity_AccessLogFailureKeepsRing(t *testing.T) {
	f, s := office(t, security.WithAccessLog(&memLog{fail: true}))

	f.World.Publish(f.Ctx, core.TopicDoorLocked, core.Payload{"door_id": "d1", "player_id": "bob"})

	assert.Len(t, s.AccessLog(0), 1)
}

func TestSecurity_AccessRingIsBounded(t *testing.T) {
	f, s := office(t)
	for range security.AccessRingSize + 5 {
		f.World.Publish(f.Ctx, core.TopicDoorOpened, core.Payload{"door_id": "d1"})
	}
	assert.Len(t, s.AccessLog(0), security.AccessRingSize)
}

func TestSecurity_Cameras(t *testing.T) {
	f, s := office(t)
	cam := world.NewCamera()
	f.Add("cam1", "vault", cam)
	f.Player("warden", "brig")

	assert.Equal(t, []string{"cam1"}, s.CamerasIn("vault"))
	view, err := s.Monitor("vault", "warden")
	require.NoError(t, err)
	assert.NotEmpty(t, view)

	cam.Toggle(f.Ctx, f.World, false)
	assert.Empty(t, s.CamerasIn("vault"))
	_, err = s.Monitor("vault", "warden")
	errutil.AssertErrorCode(t, err, "NO_CAMERA")
}

func TestSecurity_CrimesAndEvidence(t *testing.T) {
	f, s := office(t)

	c1 := s.ReportCrime(f.Ctx, "alice", "bob", "stole the captain's spare", "")
	c2 := s.ReportCrime(f.Ctx, "alice", "", "graffiti", "major")

	assert.Equal(t, 1, c1.ID)
	assert.Equal(t, 2, c2.ID)
	assert.Equal(t, "minor", c1.Severity)
	require.NoError(t, s.AddEvidence(f.Ctx, 1, "fingerprints"))
	errutil.AssertErrorCode(t, s.AddEvidence(f.Ctx, 9, "nothing"), "NOT_FOUND")
	crimes := s.Crimes()
	require.Len(t, crimes, 2)
	assert.Equal(t, []string{"fingerprints"}, crimes[0].Evidence)
	assert.Equal(t, 2, f.Count(core.TopicCrimeReported))
	assert.Equal(t, 1, f.Count(core.TopicEvidenceCollected))
}

func TestSecurity_ArrestAndAutoRelease(t *testing.T) {
	f, s := office(t)
	f.Player("bob", "hall")

	p, err := s.Arrest(f.Ctx, "bob", 5*time.Minute, "brig")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(5*time.Minute), p.Release)
	bob, _ := f.World.Get("bob")
	assert.Equal(t, "brig", bob.Location)

	assert.Empty(t, s.CheckSentences(f.Ctx, t0.Add(time.Minute)))
	require.NoError(t, s.Tick(f.Ctx, t0.Add(5*time.Minute)))
	_, jailed := s.Prisoner("bob")
	assert.False(t, jailed)
	assert.Equal(t, 1, f.Count(core.TopicPlayerReleased))

	_, err = s.Arrest(f.Ctx, "bob", 0, "")
	errutil.AssertErrorCode(t, err, "INVALID_ARGS")
	assert.False(t, s.Release(f.Ctx, "bob"))
}
