// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

// Package api provides the HTTP surface: the recommendation endpoint,
// health checks and Prometheus metrics, routed with Chi.
package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/davamoreno/rekomendasi/internal/engine"
)

// SnapshotProvider yields the currently published similarity snapshot.
// Implemented by engine.Coordinator.
type SnapshotProvider interface {
	Current() *engine.Snapshot
}

// Pinger reports data store liveness for the readiness probe.
type Pinger interface {
	Ready(ctx context.Context) error
}

// Handler carries the dependencies of all HTTP handlers.
type Handler struct {
	snapshots SnapshotProvider
	store     Pinger
	defaultN  int
}

// NewHandler creates the handler set. defaultN is the recommendation
// count used when a request does not specify one.
func NewHandler(snapshots SnapshotProvider, store Pinger, defaultN int) *Handler {
	if defaultN <= 0 {
		defaultN = 5
	}
	return &Handler{
		snapshots: snapshots,
		store:     store,
		defaultN:  defaultN,
	}
}

// RecommendRequest is the POST /recommend body. ProductID is a pointer
// so that a missing field is distinguishable from id 0.
type RecommendRequest struct {
	ProductID *int64 `json:"product_id" validate:"required"`
	N         int    `json:"n" validate:"omitempty,gte=1,lte=100"`
}

// RecommendResponse is the POST /recommend success body.
type RecommendResponse struct {
	Recommendations []int64 `json:"recommendations"`
}

// Recommend handles POST /recommend.
//
// Unknown product ids produce an empty list with status 200; only a
// malformed request (400) or a not-yet-built snapshot (500) fail.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be JSON with a product_id field", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	snap := h.snapshots.Current()
	if snap == nil {
		respondError(w, http.StatusInternalServerError, "SNAPSHOT_NOT_READY", "Similarity model is not built yet", engine.ErrNoSnapshot)
		return
	}

	n := req.N
	if n == 0 {
		n = h.defaultN
	}

	respondJSON(w, http.StatusOK, &RecommendResponse{
		Recommendations: snap.Recommend(*req.ProductID, n),
	})
}

// HealthLive handles GET /api/v1/health/live. Always 200 while the
// process runs.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady handles GET /api/v1/health/ready. Ready means the data
// store answers and a similarity snapshot has been published.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ready(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Data store is not reachable", err)
		return
	}

	snap := h.snapshots.Current()
	if snap == nil {
		respondError(w, http.StatusServiceUnavailable, "SNAPSHOT_NOT_READY", "Similarity model is not built yet", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"snapshot_version": snap.Version(),
		"products":         snap.Len(),
	})
}
