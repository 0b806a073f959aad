// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels on mudss13_command_executions_total.
const (
	StatusSuccess          = "success"
	StatusError            = "error"
	StatusNotFound         = "not_found"
	StatusPermissionDenied = "permission_denied"
	StatusRateLimited      = "rate_limited"
	StatusPanic            = "panic"
)

// Dispatcher collectors. Unknown verbs share the "unknown" label so a
// player mashing the keyboard cannot blow up cardinality.
var (
	CommandExecutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mudss13_command_executions_total",
		Help: "Dispatched commands by verb, source and outcome",
	}, []string{"command", "source", "status"})

	CommandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mudss13_command_duration_seconds",
		Help:    "Wall-clock time from input to reply",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2.5, 10),
	}, []string{"command", "source"})

	AliasExpansions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mudss13_alias_expansions_total",
		Help: "Inputs rewritten by an alias",
	}, []string{"alias"})

	SlowCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mudss13_command_slow_total",
		Help: "Handlers that overran the watchdog budget",
	}, []string{"command"})
)

// RegisterMetrics registers the dispatcher collectors on reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CommandExecutions, CommandDuration, AliasExpansions, SlowCommands)
}

// tally accumulates the labels of one dispatch and is flushed when it ends.
// Blank lines and alias no-ops never name a verb and are not counted.
type tally struct {
	start  time.Time
	verb   string
	source string
	status string
}

func newTally() *tally { return &tally{start: time.Now(), status: StatusSuccess} }

func (t *tally) name(verb, source string) { t.verb, t.source = verb, source }

func (t *tally) outcome(status string) { t.status = status }

func (t *tally) flush() {
	if t.verb == "" {
		return
	}
	verb := t.verb
	if t.status == StatusNotFound {
		verb = "unknown"
	}
	CommandExecutions.WithLabelValues(verb, t.source, t.status).Inc()
	CommandDuration.WithLabelValues(verb, t.source).Observe(time.Since(t.start).Seconds())
}
