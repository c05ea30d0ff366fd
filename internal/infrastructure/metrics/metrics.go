package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parlance",
			Subsystem: "chat_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parlance",
			Subsystem: "chat_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Send outcome counters
	SendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parlance",
			Subsystem: "chat_api",
			Name:      "sends_total",
			Help:      "Total chat send operations by outcome",
		},
		[]string{"model", "outcome"},
	)

	// Provider failure counters by classified kind
	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parlance",
			Subsystem: "chat_api",
			Name:      "provider_failures_total",
			Help:      "Total provider call failures by error kind",
		},
		[]string{"model", "kind"},
	)

	// Provider round-trip duration histogram
	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parlance",
			Subsystem: "chat_api",
			Name:      "provider_latency_seconds",
			Help:      "Provider round-trip duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	// Active session gauge
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "parlance",
			Subsystem: "chat_api",
			Name:      "active_sessions",
			Help:      "Number of live in-memory chat sessions",
		},
	)

	// Research transform counters
	ResearchTransformsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parlance",
			Subsystem: "chat_api",
			Name:      "research_transforms_total",
			Help:      "Total research transform invocations",
		},
		[]string{"transform", "status"},
	)

	// DB query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parlance",
			Subsystem: "chat_api",
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"query_type"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordResearchTransform records one research transform invocation
func RecordResearchTransform(transform, status string) {
	ResearchTransformsTotal.WithLabelValues(transform, status).Inc()
}

// SetActiveSessions sets the live session gauge
func SetActiveSessions(n int) {
	ActiveSessions.Set(float64(n))
}

// RecordDBQuery records a database query
func RecordDBQuery(queryType string, durationSec float64) {
	DBQueryDuration.WithLabelValues(queryType).Observe(durationSec)
}
