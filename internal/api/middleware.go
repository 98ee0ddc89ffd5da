// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/davamoreno/rekomendasi/internal/metrics"
)

// RequestID assigns a request id when the caller did not send one and
// echoes it back on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// PrometheusMetrics records request count and latency per endpoint.
func PrometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		metrics.RecordAPIRequest(r.URL.Path, r.Method, rec.status, time.Since(start))
	})
}
