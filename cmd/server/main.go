// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

// Package main is the entry point for the recommendation server.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered from defaults, config.yaml and environment
//     variables (Koanf v2)
//  2. Database: DuckDB holding the product catalog and view history
//  3. Coordinator: builds and publishes immutable similarity snapshots
//  4. Listener: NATS subscription turning "refresh" messages into
//     snapshot rebuilds
//  5. HTTP server: POST /recommend plus health and metrics endpoints
//
// All long-running pieces run under a suture supervisor tree and shut
// down gracefully on SIGINT/SIGTERM.
//
// # Example Usage
//
//	export DUCKDB_PATH=/var/lib/rekomendasi/catalog.db
//	export NATS_URL=nats://localhost:4222
//	./rekomendasi-server
//
// Trigger a model refresh after the catalog changes:
//
//	nats pub recommendation-updates refresh
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davamoreno/rekomendasi/internal/api"
	"github.com/davamoreno/rekomendasi/internal/config"
	"github.com/davamoreno/rekomendasi/internal/database"
	"github.com/davamoreno/rekomendasi/internal/engine"
	"github.com/davamoreno/rekomendasi/internal/listener"
	"github.com/davamoreno/rekomendasi/internal/logging"
	"github.com/davamoreno/rekomendasi/internal/supervisor"
	"github.com/davamoreno/rekomendasi/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("nats_url", cfg.NATS.URL).
		Str("nats_subject", cfg.NATS.Subject).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coordinator := engine.NewCoordinator(db, engine.CoordinatorConfig{
		BuildOnStart:   cfg.Engine.BuildOnStart,
		RebuildTimeout: cfg.Engine.RebuildTimeout,
	}, logging.Logger())

	refreshListener := listener.New(cfg.NATS, coordinator, logging.Logger())

	handler := api.NewHandler(coordinator, db, cfg.Engine.DefaultN)
	router := api.NewRouter(handler, api.RouterConfig{RateLimit: cfg.Server.RateLimit})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Bridge zerolog to slog for sutureslog
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddEngineService(coordinator)
	tree.AddEngineService(refreshListener)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context cancelled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor closes the channel
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}
