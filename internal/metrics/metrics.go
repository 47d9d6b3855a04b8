// Package metrics provides Prometheus metrics for the console
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_http_requests_total",
			Help: "Total number of HTTP requests handled by the console",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_http_request_duration_seconds",
			Help:    "Time taken to handle console HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Upstream API metrics
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_upstream_calls_total",
			Help: "Total number of calls made to the upstream API",
		},
		[]string{"endpoint", "outcome"},
	)

	UpstreamCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_upstream_call_duration_seconds",
			Help:    "Duration of calls to the upstream API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Flow metrics
	LoginOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_login_outcomes_total",
			Help: "Login submissions by outcome",
		},
		[]string{"outcome"},
	)

	OverlaysOpenedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_overlays_opened_total",
			Help: "Dialogs opened by kind",
		},
		[]string{"kind"},
	)

	StaleResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_stale_responses_total",
			Help: "Responses discarded because their dialog was closed or superseded",
		},
		[]string{"kind"},
	)

	ActiveTabs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "console_active_tabs",
			Help: "Number of client tabs held in memory",
		},
	)
)

// Outcome labels shared by the counters above
const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "status_error"
	OutcomeTransport = "transport_error"
	OutcomeDecode    = "decode_error"
)
