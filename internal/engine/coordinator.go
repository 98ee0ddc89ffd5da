// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/davamoreno/rekomendasi/internal/metrics"
)

// ErrNoSnapshot is returned by callers that need a published snapshot
// before the first successful rebuild has completed.
var ErrNoSnapshot = errors.New("no similarity snapshot published yet")

// Store provides the product catalog for snapshot builds. Implemented by
// the database package; kept as an interface here so the engine has no
// dependency on the storage layer.
type Store interface {
	// ProductCatalog returns every product with its tags aggregated,
	// in a stable order.
	ProductCatalog(ctx context.Context) ([]Product, error)
}

// CoordinatorConfig holds rebuild behavior settings.
type CoordinatorConfig struct {
	// BuildOnStart triggers a rebuild when Serve starts, so the service
	// comes up ready without waiting for an external signal.
	BuildOnStart bool

	// RebuildTimeout bounds a single rebuild. Default: 5m.
	RebuildTimeout time.Duration
}

// Coordinator owns the single published Snapshot reference.
//
// It is the only writer of that reference: rebuilds construct a brand-new
// snapshot off to the side and publish it with one atomic pointer store.
// Readers call Current at the start of a query and use that snapshot for
// the query's whole lifetime; a publish concurrent with a read retires
// the old snapshot without ever exposing a partially-built one.
//
// Rebuild requests arrive through a one-slot channel: a request during an
// in-flight rebuild parks in the slot and runs next, and further requests
// coalesce into the parked one. No signal is dropped (every signal is
// followed by a rebuild that starts after it arrived) and no two rebuilds
// ever run concurrently.
type Coordinator struct {
	store    Store
	cfg      CoordinatorConfig
	logger   zerolog.Logger
	current  atomic.Pointer[Snapshot]
	version  atomic.Int64
	requests chan struct{}
	breaker  *gobreaker.CircuitBreaker[[]Product]
	name     string
}

// NewCoordinator creates a coordinator reading from store. Catalog loads
// run through a circuit breaker so a store outage fails rebuilds fast
// instead of piling up slow attempts; thanks to snapshot retention a
// tripped breaker only delays freshness, never availability.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCoordinator(store Store, cfg CoordinatorConfig, logger zerolog.Logger) *Coordinator {
	if cfg.RebuildTimeout <= 0 {
		cfg.RebuildTimeout = 5 * time.Minute
	}

	cbName := "catalog-store"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]Product](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return &Coordinator{
		store:    store,
		cfg:      cfg,
		logger:   logger.With().Str("component", "coordinator").Logger(),
		requests: make(chan struct{}, 1),
		breaker:  cb,
		name:     "refresh-coordinator",
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Current returns the published snapshot, or nil before the first
// successful rebuild. The returned snapshot is immutable; callers must
// not hold the reference beyond a single query.
func (c *Coordinator) Current() *Snapshot {
	return c.current.Load()
}

// Request enqueues a rebuild. Non-blocking: if a rebuild is already
// pending the request coalesces with it, since the pending rebuild will
// read catalog state at least as fresh as this signal.
func (c *Coordinator) Request() {
	select {
	case c.requests <- struct{}{}:
	default:
	}
}

// Rebuild loads the catalog, builds a new snapshot off to the side and
// publishes it atomically. On any failure the previously published
// snapshot stays live and the error is returned for logging; a failed
// rebuild never degrades availability.
func (c *Coordinator) Rebuild(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RebuildTimeout)
	defer cancel()

	start := time.Now()
	products, err := c.breaker.Execute(func() ([]Product, error) {
		return c.store.ProductCatalog(ctx)
	})
	if err != nil {
		metrics.RebuildFailures.Inc()
		return fmt.Errorf("load product catalog: %w", err)
	}

	snap := BuildSnapshot(products, c.version.Add(1))

	// The only mutation of shared state in the whole rebuild path.
	c.current.Store(snap)

	metrics.RebuildDuration.Observe(time.Since(start).Seconds())
	metrics.SnapshotProducts.Set(float64(snap.Len()))
	metrics.SnapshotVersion.Set(float64(snap.Version()))

	c.logger.Info().
		Int64("version", snap.Version()).
		Int("products", snap.Len()).
		Dur("duration", time.Since(start)).
		Msg("similarity snapshot published")
	return nil
}

// Serve implements suture.Service. It processes rebuild requests one at
// a time in arrival order until the context is canceled. Rebuild errors
// are logged, never returned: a data-store outage must not restart the
// coordinator and lose the published snapshot.
func (c *Coordinator) Serve(ctx context.Context) error {
	if c.cfg.BuildOnStart {
		if err := c.Rebuild(ctx); err != nil {
			c.logger.Error().Err(err).Msg("initial snapshot build failed (serving resumes after next refresh)")
		}
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("refresh coordinator shutting down")
			return ctx.Err()

		case <-c.requests:
			if err := c.Rebuild(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Error().Err(err).Msg("snapshot rebuild failed, previous snapshot retained")
			}
		}
	}
}

// String returns the service name for supervisor logging.
func (c *Coordinator) String() string {
	return c.name
}
