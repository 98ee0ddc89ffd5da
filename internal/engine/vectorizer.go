// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

package engine

import (
	"math"
	"sort"
	"strings"
)

// SimilarityMatrix computes the dense pairwise cosine similarity matrix
// over the given content soups.
//
// Weighting is TF-IDF with smoothed IDF (ln((1+N)/(1+df)) + 1) and
// term frequency normalized by document length, matching the usual
// vectorizer defaults. Stopwords are excluded from the vocabulary.
//
// Determinism: the vocabulary is assigned indices in sorted term order
// and all accumulation runs in that fixed order, so the same corpus in
// the same order always produces a bit-for-bit identical matrix.
//
// The matrix is symmetric and the diagonal is exactly 1.0: each off-
// diagonal cell is computed once for i < j and mirrored, and the
// diagonal is written directly rather than recomputed, avoiding
// float drift on the self-similarity invariant.
//
// Cost is O(n^2 * avg vector length). Fine for catalogs up to the low
// tens of thousands; beyond that an ANN index is the right tool.
func SimilarityMatrix(soups []string) [][]float64 {
	n := len(soups)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
		sim[i][i] = 1.0
	}
	if n < 2 {
		return sim
	}

	tokens := make([][]string, n)
	df := make(map[string]int)
	for i, soup := range soups {
		tokens[i] = tokenize(soup)
		seen := make(map[string]struct{})
		for _, tok := range tokens[i] {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	// Stable vocabulary ordering
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	total := float64(n)
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log((1+total)/(1+float64(df[term]))) + 1.0
	}

	vectors := make([]sparseVector, n)
	for i := range tokens {
		vectors[i] = weigh(tokens[i], vocab, idf)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := vectors[i].dot(vectors[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}

// sparseVector is an L2-normalized term-weight vector stored as parallel
// slices sorted by term index. Sorted storage keeps dot products a
// deterministic merge instead of a map iteration.
type sparseVector struct {
	indices []int
	weights []float64
}

// dot returns the cosine similarity of two normalized vectors.
func (v sparseVector) dot(o sparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.indices) && j < len(o.indices) {
		switch {
		case v.indices[i] == o.indices[j]:
			sum += v.weights[i] * o.weights[j]
			i++
			j++
		case v.indices[i] < o.indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// weigh turns a token stream into an L2-normalized TF-IDF vector.
func weigh(toks []string, vocab map[string]int, idf []float64) sparseVector {
	counts := make(map[int]int)
	for _, tok := range toks {
		if idx, ok := vocab[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return sparseVector{}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	weights := make([]float64, len(indices))
	docLen := float64(len(toks))
	var norm float64
	for i, idx := range indices {
		w := float64(counts[idx]) / docLen * idf[idx]
		weights[i] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range weights {
			weights[i] /= norm
		}
	}
	return sparseVector{indices: indices, weights: weights}
}

// tokenize splits an already-normalized soup on whitespace and drops
// stopwords. CleanText guarantees the input is lowercase alphanumerics.
func tokenize(soup string) []string {
	fields := strings.Fields(soup)
	out := fields[:0]
	for _, f := range fields {
		if _, isStop := stopwords[f]; isStop {
			continue
		}
		out = append(out, f)
	}
	return out
}
