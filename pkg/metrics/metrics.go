package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masterdash_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// GatewayQueries counts scoped warehouse queries by dashboard and outcome
	// (success|denied|error).
	GatewayQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masterdash_gateway_queries_total",
			Help: "Total number of access-scoped warehouse queries",
		},
		[]string{"dashboard", "result"},
	)

	// GatewayQueryDuration measures warehouse query latency per dashboard.
	GatewayQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "masterdash_gateway_query_duration_seconds",
			Help:    "Warehouse query execution latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dashboard"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "masterdash_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
