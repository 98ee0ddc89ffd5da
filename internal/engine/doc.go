// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

// Package engine implements the item-to-item similarity model: text
// normalization, TF-IDF weighting with pairwise cosine similarity,
// immutable queryable snapshots, and the refresh coordinator that
// rebuilds snapshots in the background and publishes them atomically.
//
// # Concurrency Model
//
// Exactly one mutable shared location exists: the coordinator's current
// snapshot pointer. Snapshots themselves are immutable after
// construction. Any number of request handlers may read concurrently
// while a rebuild is in flight; the swap is a single O(1) pointer store,
// so readers are never blocked and never observe a mix of two models.
//
// The package deliberately has no dependency on the storage or transport
// layers; the Store interface is implemented by internal/database and
// rebuild triggers arrive via Coordinator.Request.
package engine
