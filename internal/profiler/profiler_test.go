// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

package profiler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type fakeData struct {
	interactions []Interaction
	features     []ProductFeature
	loadErr      error

	written  [][]Recommendation
	writeErr error
}

func (f *fakeData) Interactions(_ context.Context) ([]Interaction, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.interactions, nil
}

func (f *fakeData) ProductFeatures(_ context.Context) ([]ProductFeature, error) {
	return f.features, nil
}

func (f *fakeData) ReplaceRecommendations(_ context.Context, recs []Recommendation) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, recs)
	return nil
}

func ptr(v int64) *int64 { return &v }

func newTestBuilder(data *fakeData, cfg Config) *Builder {
	return NewBuilder(data, data, data, cfg, zerolog.Nop())
}

func TestBuilder_Run_EmptyHistoryIsNoOp(t *testing.T) {
	data := &fakeData{
		features: []ProductFeature{{ProductID: 1, CategoryID: ptr(5)}},
	}
	b := newTestBuilder(data, Config{})

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(data.written) != 0 {
		t.Errorf("empty history must not touch the sink, got %d writes", len(data.written))
	}
}

func TestBuilder_Run_CategoryMatch(t *testing.T) {
	// u1 viewed p1 (category 5); p2 shares the category and must score 1,
	// p1 itself is excluded as already viewed.
	data := &fakeData{
		interactions: []Interaction{{UserID: 1, ProductID: 1}},
		features: []ProductFeature{
			{ProductID: 1, CategoryID: ptr(5)},
			{ProductID: 2, CategoryID: ptr(5)},
		},
	}
	b := newTestBuilder(data, Config{})

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(data.written) != 1 {
		t.Fatalf("writes = %d, want 1", len(data.written))
	}

	recs := data.written[0]
	if len(recs) != 1 {
		t.Fatalf("rows = %d, want 1 (%+v)", len(recs), recs)
	}
	r := recs[0]
	if r.UserID != 1 || r.ProductID != 2 || r.Score != 1 {
		t.Errorf("row = {user %d, product %d, score %d}, want {1, 2, 1}", r.UserID, r.ProductID, r.Score)
	}
}

func TestBuilder_Run_TagAndCategoryScoresSum(t *testing.T) {
	// u1 viewed p1 twice: category 7 and tag 3 each get affinity 2.
	// p2 carries both features and must score 4; p3 carries only the tag
	// and scores 2.
	data := &fakeData{
		interactions: []Interaction{
			{UserID: 1, ProductID: 1},
			{UserID: 1, ProductID: 1},
		},
		features: []ProductFeature{
			{ProductID: 1, CategoryID: ptr(7), TagID: ptr(3)},
			{ProductID: 2, CategoryID: ptr(7), TagID: ptr(3)},
			{ProductID: 3, CategoryID: ptr(9), TagID: ptr(3)},
		},
	}
	b := newTestBuilder(data, Config{})

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	recs := data.written[0]
	if len(recs) != 2 {
		t.Fatalf("rows = %d, want 2 (%+v)", len(recs), recs)
	}
	if recs[0].ProductID != 2 || recs[0].Score != 4 {
		t.Errorf("top row = {product %d, score %d}, want {2, 4}", recs[0].ProductID, recs[0].Score)
	}
	if recs[1].ProductID != 3 || recs[1].Score != 2 {
		t.Errorf("second row = {product %d, score %d}, want {3, 2}", recs[1].ProductID, recs[1].Score)
	}
}

func TestBuilder_Run_ZeroOverlapStillEligible(t *testing.T) {
	data := &fakeData{
		interactions: []Interaction{{UserID: 1, ProductID: 1}},
		features: []ProductFeature{
			{ProductID: 1, CategoryID: ptr(5)},
			{ProductID: 2, CategoryID: ptr(8)}, // no shared feature
		},
	}
	b := newTestBuilder(data, Config{})

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	recs := data.written[0]
	if len(recs) != 1 || recs[0].ProductID != 2 || recs[0].Score != 0 {
		t.Errorf("zero-overlap product should remain eligible at score 0, got %+v", recs)
	}
}

func TestBuilder_Run_TopKCap(t *testing.T) {
	features := []ProductFeature{{ProductID: 100, CategoryID: ptr(1)}}
	for id := int64(1); id <= 30; id++ {
		features = append(features, ProductFeature{ProductID: id, CategoryID: ptr(1)})
	}
	data := &fakeData{
		interactions: []Interaction{{UserID: 1, ProductID: 100}},
		features:     features,
	}
	b := newTestBuilder(data, Config{TopK: 20})

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	recs := data.written[0]
	if len(recs) != 20 {
		t.Fatalf("rows = %d, want 20 per-user cap", len(recs))
	}
	// All scores tie at 1; ranking must fall back to ascending product id.
	for i, r := range recs {
		if r.ProductID != int64(i+1) {
			t.Fatalf("row %d product = %d, want %d (ascending id tie break)", i, r.ProductID, i+1)
		}
	}
}

func TestBuilder_Run_Idempotent(t *testing.T) {
	data := &fakeData{
		interactions: []Interaction{
			{UserID: 1, ProductID: 1},
			{UserID: 2, ProductID: 2},
			{UserID: 1, ProductID: 3},
		},
		features: []ProductFeature{
			{ProductID: 1, CategoryID: ptr(5), TagID: ptr(1)},
			{ProductID: 2, CategoryID: ptr(5), TagID: ptr(2)},
			{ProductID: 3, CategoryID: ptr(6)},
			{ProductID: 4, CategoryID: ptr(5), TagID: ptr(1)},
			{ProductID: 5, CategoryID: ptr(6), TagID: ptr(2)},
		},
	}
	b := newTestBuilder(data, Config{})

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	first, second := data.written[0], data.written[1]
	if len(first) != len(second) {
		t.Fatalf("runs produced %d vs %d rows", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.UserID != b.UserID || a.ProductID != b.ProductID || a.Score != b.Score {
			t.Fatalf("row %d differs between identical runs: %+v vs %+v", i, a, b)
		}
	}
}

func TestBuilder_Run_OnlyProfiledUsersWritten(t *testing.T) {
	// u2 never interacted; the output must contain rows for u1 only.
	data := &fakeData{
		interactions: []Interaction{{UserID: 1, ProductID: 1}},
		features: []ProductFeature{
			{ProductID: 1, CategoryID: ptr(5)},
			{ProductID: 2, CategoryID: ptr(5)},
		},
	}
	b := newTestBuilder(data, Config{})

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, r := range data.written[0] {
		if r.UserID != 1 {
			t.Errorf("unexpected row for user %d", r.UserID)
		}
	}
}

func TestBuilder_Run_ZeroCandidatesStillTruncates(t *testing.T) {
	// The user has viewed every product: no candidates remain, but the
	// sink must still be called so stale rows are cleared.
	data := &fakeData{
		interactions: []Interaction{
			{UserID: 1, ProductID: 1},
			{UserID: 1, ProductID: 2},
		},
		features: []ProductFeature{
			{ProductID: 1, CategoryID: ptr(5)},
			{ProductID: 2, CategoryID: ptr(5)},
		},
	}
	b := newTestBuilder(data, Config{})

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(data.written) != 1 {
		t.Fatalf("sink should be called exactly once, got %d", len(data.written))
	}
	if len(data.written[0]) != 0 {
		t.Errorf("rows = %d, want 0", len(data.written[0]))
	}
}

func TestBuilder_Run_SourceErrorPropagates(t *testing.T) {
	data := &fakeData{loadErr: errors.New("connection refused")}
	b := newTestBuilder(data, Config{})

	if err := b.Run(context.Background()); err == nil {
		t.Fatal("Run() should propagate data source errors")
	}
	if len(data.written) != 0 {
		t.Error("failed run must not write")
	}
}
