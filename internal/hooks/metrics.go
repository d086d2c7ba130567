// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hooks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status label values for hook metrics.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusNoHandler = "no_handler"
)

// HookTriggers counts hook triggers by hook name and status.
// Use RegisterMetrics to register this with a Prometheus registry.
var HookTriggers = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mediabutton_hook_triggers_total",
		Help: "Total number of hook triggers",
	},
	[]string{"hook", "status"},
)

// HookDuration observes trigger latency including retries.
var HookDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mediabutton_hook_duration_seconds",
		Help:    "Hook trigger duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"hook"},
)

// HookRetries counts handler retries.
var HookRetries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mediabutton_hook_retries_total",
		Help: "Total number of hook handler retries",
	},
	[]string{"hook"},
)

// RegisterMetrics registers hook metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(HookTriggers)
	reg.MustRegister(HookDuration)
	reg.MustRegister(HookRetries)
}

func recordTrigger(hook, status string, d time.Duration) {
	HookTriggers.WithLabelValues(hook, status).Inc()
	HookDuration.WithLabelValues(hook).Observe(d.Seconds())
}
