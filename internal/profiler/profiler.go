// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

// Package profiler implements the offline affinity batch: it aggregates
// interaction history into per-user feature affinities, scores every
// unviewed product against them and replace-writes the persisted
// recommendation table. The profiler shares no state with the live
// similarity index; it is scheduled externally and a single active run
// is assumed.
package profiler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/davamoreno/rekomendasi/internal/metrics"
)

// Interaction is one append-only (user, product) view event.
type Interaction struct {
	UserID    int64
	ProductID int64
}

// ProductFeature is one row of the product feature table. One product
// yields one row per tag, or a single row with a nil TagID when it has
// no tags; CategoryID is nil for uncategorized products.
type ProductFeature struct {
	ProductID  int64
	CategoryID *int64
	TagID      *int64
}

// Recommendation is one persisted output row.
type Recommendation struct {
	UserID    int64
	ProductID int64
	Score     int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InteractionSource provides the full interaction history.
type InteractionSource interface {
	Interactions(ctx context.Context) ([]Interaction, error)
}

// FeatureSource provides the product feature table.
type FeatureSource interface {
	ProductFeatures(ctx context.Context) ([]ProductFeature, error)
}

// RecommendationSink persists a full replacement of the recommendation
// table: truncate plus bulk insert inside one transaction.
type RecommendationSink interface {
	ReplaceRecommendations(ctx context.Context, recs []Recommendation) error
}

// featureClass distinguishes the two affinity namespaces so that a
// category id and a tag id with the same value never collide.
type featureClass uint8

const (
	classCategory featureClass = iota + 1
	classTag
)

// featureKey is the composite affinity key: feature class plus feature id.
type featureKey struct {
	class featureClass
	id    int64
}

// profile maps features to affinity counts; absent keys read as zero.
type profile map[featureKey]int64

// Config holds profiler settings.
type Config struct {
	// TopK caps the number of recommendations kept per user. Default: 20.
	TopK int
}

// Builder runs the affinity batch.
type Builder struct {
	interactions InteractionSource
	features     FeatureSource
	sink         RecommendationSink
	cfg          Config
	logger       zerolog.Logger
}

// NewBuilder creates a profiler over the given sources and sink.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBuilder(interactions InteractionSource, features FeatureSource, sink RecommendationSink, cfg Config, logger zerolog.Logger) *Builder {
	if cfg.TopK <= 0 {
		cfg.TopK = 20
	}
	return &Builder{
		interactions: interactions,
		features:     features,
		sink:         sink,
		cfg:          cfg,
		logger:       logger.With().Str("component", "profiler").Logger(),
	}
}

// Run executes one batch: load, profile, score, replace-write.
//
// An empty interaction history is a no-op: the run logs and returns
// without touching the persisted table. Any run with interactions
// replaces the table even when zero candidate rows were produced, so
// stale recommendations are cleared rather than left behind.
//
// Rerunning with identical inputs produces an identical table (modulo
// timestamps): ranking ties break by ascending product id and users are
// written in ascending order.
func (b *Builder) Run(ctx context.Context) error {
	runID := uuid.NewString()
	start := time.Now()
	logger := b.logger.With().Str("run_id", runID).Logger()

	interactions, err := b.interactions.Interactions(ctx)
	if err != nil {
		return fmt.Errorf("load interactions: %w", err)
	}
	if len(interactions) == 0 {
		logger.Info().Msg("no interactions to process, leaving recommendation table untouched")
		return nil
	}

	features, err := b.features.ProductFeatures(ctx)
	if err != nil {
		return fmt.Errorf("load product features: %w", err)
	}

	featuresByProduct := make(map[int64][]ProductFeature)
	for _, f := range features {
		featuresByProduct[f.ProductID] = append(featuresByProduct[f.ProductID], f)
	}

	viewed := make(map[int64]map[int64]struct{})
	profiles := make(map[int64]profile)
	for _, in := range interactions {
		if viewed[in.UserID] == nil {
			viewed[in.UserID] = make(map[int64]struct{})
		}
		viewed[in.UserID][in.ProductID] = struct{}{}

		// One affinity increment per joined (interaction, feature) row.
		for _, f := range featuresByProduct[in.ProductID] {
			p := profiles[in.UserID]
			if p == nil {
				p = make(profile)
				profiles[in.UserID] = p
			}
			if f.CategoryID != nil {
				p[featureKey{classCategory, *f.CategoryID}]++
			}
			if f.TagID != nil {
				p[featureKey{classTag, *f.TagID}]++
			}
		}
	}

	productIDs := make([]int64, 0, len(featuresByProduct))
	for id := range featuresByProduct {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	userIDs := make([]int64, 0, len(profiles))
	for id := range profiles {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	now := time.Now().UTC()
	var recs []Recommendation
	for _, userID := range userIDs {
		top := b.scoreUser(profiles[userID], viewed[userID], productIDs, featuresByProduct)
		for _, cand := range top {
			recs = append(recs, Recommendation{
				UserID:    userID,
				ProductID: cand.productID,
				Score:     cand.score,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
	}

	if err := b.sink.ReplaceRecommendations(ctx, recs); err != nil {
		return fmt.Errorf("write recommendations: %w", err)
	}

	metrics.ProfilerRunDuration.Observe(time.Since(start).Seconds())
	metrics.ProfilerRowsWritten.Set(float64(len(recs)))

	logger.Info().
		Int("users", len(userIDs)).
		Int("rows", len(recs)).
		Dur("duration", time.Since(start)).
		Msg("recommendation table replaced")
	return nil
}

type candidate struct {
	productID int64
	score     int64
}

// scoreUser scores every unviewed product against the user's profile and
// returns the TopK best, ties broken by ascending product id. Products
// sharing no feature with the profile score zero but stay eligible.
func (b *Builder) scoreUser(p profile, seen map[int64]struct{}, productIDs []int64, featuresByProduct map[int64][]ProductFeature) []candidate {
	candidates := make([]candidate, 0, len(productIDs))
	for _, productID := range productIDs {
		if _, ok := seen[productID]; ok {
			continue
		}
		var score int64
		for _, f := range featuresByProduct[productID] {
			if f.CategoryID != nil {
				score += p[featureKey{classCategory, *f.CategoryID}]
			}
			if f.TagID != nil {
				score += p[featureKey{classTag, *f.TagID}]
			}
		}
		candidates = append(candidates, candidate{productID: productID, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].productID < candidates[j].productID
	})

	if len(candidates) > b.cfg.TopK {
		candidates = candidates[:b.cfg.TopK]
	}
	return candidates
}
