// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCadence_DriftFree(t *testing.T) {
	t0 := time.Unix(0, 0)
	c := NewCadence(10 * time.Second)

	assert.False(t, c.Due(t0), "first call arms")
	assert.False(t, c.Due(t0.Add(9*time.Second)))
	assert.True(t, c.Due(t0.Add(11*time.Second)))
	assert.False(t, c.Due(t0.Add(19*time.Second)))
	assert.True(t, c.Due(t0.Add(20*time.Second)), "next run stays on the 10s grid")
	assert.Equal(t, t0.Add(20*time.Second), c.Last())
}

func TestCadence_CatchesUpWhenFarBehind(t *testing.T) {
	t0 := time.Unix(0, 0)
	c := NewCadence(time.Second)
	c.Due(t0)

	assert.True(t, c.Due(t0.Add(time.Minute)))
	assert.False(t, c.Due(t0.Add(time.Minute+500*time.Millisecond)))
	assert.True(t, c.Due(t0.Add(time.Minute+time.Second)))
}

func TestCadence_ZeroIntervalAlwaysDue(t *testing.T) {
	var c Cadence
	assert.True(t, c.Due(time.Unix(1, 0)))
	assert.True(t, c.Due(time.Unix(1, 0)))
}

func TestScheduler_RunsInStageOrder(t *testing.T) {
	s := New(&Fence{})
	var order []string
	add := func(stage Stage, name string) {
		s.Register(stage, name, 0, SystemFunc(func(context.Context, time.Time) error {
			order = append(order, name)
			return nil
		}))
	}
	add(StageSecurity, "security")
	add(StagePower, "power")
	add(StageEvents, "events")
	add(StageNPC, "npc")
	add(StageAtmos, "atmos")
	add(StageDisease, "disease")
	add(StageMaintenance, "maintenance")
	add(StagePlumbing, "plumbing")
	add(StageBotany, "botany")

	s.Step(context.Background(), time.Unix(0, 0))

	assert.Equal(t, []string{
		"power", "atmos", "maintenance", "disease", "botany", "plumbing", "npc", "events", "security",
	}, order)
	assert.Equal(t, order, s.Systems())
	assert.Equal(t, uint64(1), s.Ticks())
}

func TestScheduler_FailingSystemDoesNotStopCycle(t *testing.T) {
	s := New(&Fence{})
	ran := 0
	s.Register(StagePower, "boom", 0, SystemFunc(func(context.Context, time.Time) error {
		panic("generator exploded")
	}))
	s.Register(StageAtmos, "err", 0, SystemFunc(func(context.Context, time.Time) error {
		return errors.New("bad tile")
	}))
	s.Register(StageNPC, "ok", 0, SystemFunc(func(context.Context, time.Time) error {
		ran++
		return nil
	}))

	s.Step(context.Background(), time.Unix(0, 0))

	assert.Equal(t, 1, ran)
}

func TestScheduler_RespectsIntervals(t *testing.T) {
	s := New(&Fence{})
	calls := 0
	s.Register(StagePower, "power", 30*time.Second, SystemFunc(func(context.Context, time.Time) error {
		calls++
		return nil
	}))

	t0 := time.Unix(0, 0)
	for i := 0; i <= 120; i++ {
		s.Step(context.Background(), t0.Add(time.Duration(i)*250*time.Millisecond))
	}

	assert.Equal(t, 1, calls)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(&Fence{})
	calls := 0
	s.Register(StageCargo, "cargo", time.Hour, SystemFunc(func(context.Context, time.Time) error {
		calls++
		return nil
	}))

	require.NoError(t, s.RunNow(context.Background(), "cargo", time.Unix(0, 0)))
	assert.Equal(t, 1, calls)
	assert.Error(t, s.RunNow(context.Background(), "missing", time.Unix(0, 0)))
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	s := New(&Fence{}, WithBase(time.Millisecond))
	var mu sync.Mutex
	calls := 0
	s.Register(StagePower, "power", 0, SystemFunc(func(context.Context, time.Time) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Ticks() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, calls, 3)
}

func TestFence_ExclusiveBlocksCommands(t *testing.T) {
	var f Fence
	entered := make(chan struct{})
	release := make(chan struct{})
	go f.Exclusive(func() {
		close(entered)
		<-release
	})
	<-entered

	ran := make(chan struct{})
	go f.Command(func() { close(ran) })

	select {
	case <-ran:
		t.Fatal("command ran during exclusive section")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-ran
}
