package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	// HTTPRequests tracks requests by method, route, and status class
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatehouse_http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration tracks request latency in milliseconds
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatehouse_http_request_duration_ms",
			Help:    "HTTP request duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"method", "route"},
	)
)

// Sign-in metrics
var (
	// SignIns tracks federated sign-in attempts by outcome
	SignIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatehouse_signins_total",
			Help: "Federated sign-in attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
)

// Administration metrics
var (
	// SyncOutcomes tracks membership sync items by action and outcome
	SyncOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatehouse_sync_outcomes_total",
			Help: "Membership sync items by action and outcome",
		},
		[]string{"action", "outcome"},
	)
)
