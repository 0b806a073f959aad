// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Flood control defaults: ten lines at once, then two a second.
const (
	DefaultBurst     = 10
	DefaultPerSecond = 2.0
	minPerSecond     = 0.1
)

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithBurst sets how many commands a session may send back to back.
func WithBurst(n int) RateLimiterOption {
	return func(rl *RateLimiter) {
		if n > 0 {
			rl.burst = float64(n)
		}
	}
}

// WithPerSecond sets the refill rate. Rates below 0.1/s are raised to it.
func WithPerSecond(rate float64) RateLimiterOption {
	return func(rl *RateLimiter) {
		if rate > 0 {
			rl.perSecond = max(rate, minPerSecond)
		}
	}
}

// WithLimiterClock replaces time.Now.
func WithLimiterClock(now func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) { rl.now = now }
}

// WithLimiterRegistry exports the number of tracked sessions on reg.
func WithLimiterRegistry(reg prometheus.Registerer) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.tracked = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mudss13_ratelimiter_sessions",
			Help: "Sessions with a live flood-control bucket",
		})
		reg.MustRegister(rl.tracked)
	}
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// RateLimiter is a per-session token bucket guarding the dispatcher against
// players pasting walls of commands. Buckets live until the session manager
// calls Forget on disconnect.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[ulid.ULID]*bucket
	burst     float64
	perSecond float64
	now       func() time.Time
	tracked   prometheus.Gauge
}

// NewRateLimiter returns a limiter with DefaultBurst and DefaultPerSecond
// unless overridden.
func NewRateLimiter(opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		buckets:   make(map[ulid.ULID]*bucket),
		burst:     DefaultBurst,
		perSecond: DefaultPerSecond,
		now:       time.Now,
	}
	for _, o := range opts {
		o(rl)
	}
	return rl
}

// Allow spends one token for sessionID. When the bucket is empty it reports
// false and how long until the next token.
func (rl *RateLimiter) Allow(sessionID ulid.ULID) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()

	b, ok := rl.buckets[sessionID]
	if !ok {
		b = &bucket{tokens: rl.burst, seen: now}
		rl.buckets[sessionID] = b
		rl.report()
	}
	b.tokens = min(rl.burst, b.tokens+now.Sub(b.seen).Seconds()*rl.perSecond)
	b.seen = now
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := (1 - b.tokens) / rl.perSecond
	return false, time.Duration(wait * float64(time.Second))
}

// Forget drops sessionID's bucket.
func (rl *RateLimiter) Forget(sessionID ulid.ULID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, sessionID)
	rl.report()
}

// Sweep drops buckets idle for longer than maxAge and returns how many went.
func (rl *RateLimiter) Sweep(maxAge time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-maxAge)
	n := 0
	for id, b := range rl.buckets {
		if b.seen.Before(cutoff) {
			delete(rl.buckets, id)
			n++
		}
	}
	rl.report()
	return n
}

// Tracked returns the number of live buckets.
func (rl *RateLimiter) Tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func (rl *RateLimiter) report() {
	if rl.tracked != nil {
		rl.tracked.Set(float64(len(rl.buckets)))
	}
}
