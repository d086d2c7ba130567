// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package host

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ComponentClicks counts component invocations by component and status.
// Use RegisterMetrics to register this with a Prometheus registry.
var ComponentClicks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mediabutton_component_clicks_total",
		Help: "Total number of component click invocations",
	},
	[]string{"component", "status"},
)

// ComponentDuration observes component click latency.
var ComponentDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mediabutton_component_click_duration_seconds",
		Help:    "Component click duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"component"},
)

// RegisterMetrics registers host metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(ComponentClicks)
	reg.MustRegister(ComponentDuration)
}

func recordClick(component string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ComponentClicks.WithLabelValues(component, status).Inc()
	ComponentDuration.WithLabelValues(component).Observe(d.Seconds())
}
