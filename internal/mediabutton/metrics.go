// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mediabutton

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Activations counts finished activations by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var Activations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mediabutton_activations_total",
		Help: "Total number of media button activations by outcome",
	},
	[]string{"outcome"},
)

// ActivationDuration observes how long activations take, lookups included.
var ActivationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mediabutton_activation_duration_seconds",
		Help:    "Media button activation duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// RegisterMetrics registers the package metrics with reg.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Activations)
	reg.MustRegister(ActivationDuration)
}

func recordActivation(outcome Outcome, d time.Duration) {
	Activations.WithLabelValues(outcome.String()).Inc()
	ActivationDuration.WithLabelValues(outcome.String()).Observe(d.Seconds())
}
