// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

// Package metrics registers the Prometheus instruments for the service:
// API throughput and latency, snapshot rebuild outcomes, and profiler
// batch runs. All instruments are registered with promauto on the
// default registry and exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Similarity snapshot metrics
	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapshot_rebuild_duration_seconds",
			Help:    "Duration of similarity snapshot rebuilds in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	RebuildFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_rebuild_failures_total",
			Help: "Total number of failed snapshot rebuilds",
		},
	)

	SnapshotProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_products",
			Help: "Number of products in the published similarity snapshot",
		},
	)

	SnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_version",
			Help: "Version of the published similarity snapshot",
		},
	)

	// Refresh listener metrics
	RefreshSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_signals_total",
			Help: "Total number of pub/sub messages on the refresh subject",
		},
		[]string{"outcome"}, // "triggered", "ignored"
	)

	// Profiler metrics
	ProfilerRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "profiler_run_duration_seconds",
			Help:    "Duration of profiler batch runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	ProfilerRowsWritten = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "profiler_rows_written",
			Help: "Recommendation rows written by the last profiler run",
		},
	)

	// Circuit breaker metrics (catalog store access during rebuilds)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordAPIRequest records one finished API request.
func RecordAPIRequest(endpoint, method string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
