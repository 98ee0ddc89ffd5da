// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

// Package main is the offline profiler batch.
//
// It reads the product view history, scores every product against each
// user's category and tag affinities, and replaces the
// user_dashboard_recommendations table in a single transaction. Run it
// from cron or a scheduler; it exits non-zero when the batch fails so
// the scheduler can alert and retry.
//
//	./rekomendasi-profiler
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/davamoreno/rekomendasi/internal/config"
	"github.com/davamoreno/rekomendasi/internal/database"
	"github.com/davamoreno/rekomendasi/internal/logging"
	"github.com/davamoreno/rekomendasi/internal/profiler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	// A signal during the batch aborts it; the replace-write is
	// transactional so the previous recommendations stay intact.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	builder := profiler.NewBuilder(db, db, db, profiler.Config{
		TopK: cfg.Profiler.TopK,
	}, logging.Logger())

	if err := builder.Run(ctx); err != nil {
		logging.Error().Err(err).Msg("Profiler run failed")
		if closeErr := db.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("Error closing database")
		}
		os.Exit(1)
	}

	logging.Info().Msg("Profiler run completed")
}
