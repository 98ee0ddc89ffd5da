// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

package engine

import (
	"sort"
	"time"
)

// Snapshot is one complete, immutable version of the similarity model:
// the ordered product corpus, the id-to-row index and the dense pairwise
// similarity matrix. A Snapshot is built entirely off to the side and is
// never mutated after BuildSnapshot returns, which is what makes the
// coordinator's atomic publish safe: readers holding an old snapshot keep
// a fully consistent model until their query completes.
type Snapshot struct {
	products []Product
	indexOf  map[int64]int
	sim      [][]float64
	version  int64
	builtAt  time.Time
}

// BuildSnapshot constructs a snapshot from the ordered corpus. The row
// index mirrors the slice order, so the caller's ordering (typically the
// catalog query's ORDER BY) fixes the matrix layout.
func BuildSnapshot(products []Product, version int64) *Snapshot {
	soups := make([]string, len(products))
	indexOf := make(map[int64]int, len(products))
	for i, p := range products {
		soups[i] = p.ContentSoup()
		indexOf[p.ID] = i
	}

	return &Snapshot{
		products: products,
		indexOf:  indexOf,
		sim:      SimilarityMatrix(soups),
		version:  version,
		builtAt:  time.Now(),
	}
}

// Len returns the corpus size.
func (s *Snapshot) Len() int { return len(s.products) }

// Version returns the monotonic model version assigned by the coordinator.
func (s *Snapshot) Version() int64 { return s.version }

// BuiltAt returns when the snapshot was constructed.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Similarity returns the cosine similarity between corpus rows i and j.
func (s *Snapshot) Similarity(i, j int) float64 { return s.sim[i][j] }

// Recommend returns up to n product ids most similar to productID,
// ordered by descending similarity with ties broken by ascending corpus
// row, so output is deterministic for a given snapshot. The queried
// product itself is never included. An id absent from the corpus yields
// an empty result; unknown ids are normal input, not an error.
//
// Recommend never mutates the snapshot and is safe to call concurrently.
func (s *Snapshot) Recommend(productID int64, n int) []int64 {
	if n <= 0 {
		return []int64{}
	}
	row, ok := s.indexOf[productID]
	if !ok {
		return []int64{}
	}

	candidates := make([]int, 0, len(s.products)-1)
	for i := range s.products {
		if i != row {
			candidates = append(candidates, i)
		}
	}

	scores := s.sim[row]
	sort.Slice(candidates, func(a, b int) bool {
		ia, ib := candidates[a], candidates[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		return ia < ib
	})

	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = s.products[candidates[i]].ID
	}
	return out
}
