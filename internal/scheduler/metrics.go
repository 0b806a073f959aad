// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SystemDuration observes the wall time of each subsystem run.
// Use RegisterMetrics to register this with a Prometheus registry.
var SystemDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mudss13_tick_system_duration_seconds",
		Help:    "Subsystem tick duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"system"},
)

// SystemFailures counts subsystem runs that returned an error or panicked.
var SystemFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mudss13_tick_system_failures_total",
		Help: "Total number of failed subsystem ticks",
	},
	[]string{"system"},
)

// Ticks counts completed scheduler cycles.
var Ticks = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "mudss13_ticks_total",
	Help: "Total number of scheduler cycles",
})

// RegisterMetrics registers scheduler metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(SystemDuration, SystemFailures, Ticks)
}

func recordSystem(name string, d time.Duration, failed bool) {
	SystemDuration.WithLabelValues(name).Observe(d.Seconds())
	if failed {
		SystemFailures.WithLabelValues(name).Inc()
	}
}
