// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestNewRateLimiter_IgnoresNonsenseOptions(t *testing.T) {
	rl := NewRateLimiter(WithBurst(-5), WithPerSecond(-1))
	assert.InDelta(t, DefaultBurst, rl.burst, 0)
	assert.InDelta(t, DefaultPerSecond, rl.perSecond, 0)

	slow := NewRateLimiter(WithPerSecond(0.01))
	assert.InDelta(t, minPerSecond, slow.perSecond, 1e-9)
}

func TestRateLimiter_BurstThenWait(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(WithBurst(3), WithPerSecond(2), WithLimiterClock(clock.now))
	sid := ulid.Make()

	for range 3 {
		ok, wait := rl.Allow(sid)
		require.True(t, ok)
		assert.Zero(t, wait)
	}
	ok, wait := rl.Allow(sid)
	assert.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait)

	other, _ := rl.Allow(ulid.Make())
	assert.True(t, other, "buckets are per session")

	clock.advance(500 * time.Millisecond)
	ok, _ = rl.Allow(sid)
	assert.True(t, ok, "one token refilled")
	ok, _ = rl.Allow(sid)
	assert.False(t, ok)
}

func TestRateLimiter_RefillCapsAtBurst(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(WithBurst(2), WithPerSecond(1), WithLimiterClock(clock.now))
	sid := ulid.Make()
	rl.Allow(sid)
	rl.Allow(sid)

	clock.advance(time.Hour)
	for range 2 {
		ok, _ := rl.Allow(sid)
		require.True(t, ok)
	}
	ok, _ := rl.Allow(sid)
	assert.False(t, ok)
}

func TestRateLimiter_ForgetAndSweep(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	reg := prometheus.NewRegistry()
	rl := NewRateLimiter(WithLimiterClock(clock.now), WithLimiterRegistry(reg))

	a, b, c := ulid.Make(), ulid.Make(), ulid.Make()
	rl.Allow(a)
	rl.Allow(b)
	assert.Equal(t, 2, rl.Tracked())
	assert.InDelta(t, 2.0, testutil.ToFloat64(rl.tracked), 0)

	rl.Forget(a)
	assert.Equal(t, 1, rl.Tracked())

	clock.advance(time.Hour)
	rl.Allow(c)
	assert.Equal(t, 1, rl.Sweep(time.Minute))
	assert.Equal(t, 1, rl.Tracked())
	assert.InDelta(t, 1.0, testutil.ToFloat64(rl.tracked), 0)
}
