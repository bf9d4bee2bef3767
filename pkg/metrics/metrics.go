// Package metrics exposes Prometheus instrumentation for provisioning.
//
// Metrics are package-level collectors registered with the default registry.
// They are served on a separate listener (see cmd/utc-fetcher) so the setup
// portal keeps exactly its two routes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provisioning cycle metrics
var (
	// CyclesTotal counts provisioning cycles by outcome.
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provisioning_cycles_total",
			Help: "Total number of provisioning cycles by outcome",
		},
		[]string{"outcome"},
	)

	// StageTransitionsTotal counts bring-up stage entries.
	StageTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bringup_stage_transitions_total",
			Help: "Total number of bring-up stage transitions by target stage",
		},
		[]string{"stage"},
	)

	// WaitDuration tracks how long readiness waits took.
	WaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bringup_wait_duration_seconds",
			Help:    "Readiness wait duration in seconds by condition and result",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"condition", "result"},
	)
)

// Portal metrics
var (
	// PortalRequestsTotal counts portal requests by route and status.
	PortalRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_requests_total",
			Help: "Total number of setup portal requests by route and status code",
		},
		[]string{"route", "status"},
	)

	// PortalScansTotal counts page scans by result.
	PortalScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_scans_total",
			Help: "Total number of network scans triggered by the setup page",
		},
		[]string{"result"},
	)

	// PortalWaitSeconds tracks how long the device waited for a submission.
	PortalWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portal_wait_seconds",
			Help:    "Time from portal start to credential handoff or teardown",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)
)

// Time service metrics
var (
	// TimeFetchesTotal counts time service requests by result.
	TimeFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "time_fetches_total",
			Help: "Total number of time service requests by result",
		},
		[]string{"result"},
	)
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result labels.
const (
	ResultOK      = "ok"
	ResultTimeout = "timeout"
	ResultError   = "error"
)
