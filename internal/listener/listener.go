// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

// Package listener subscribes to the NATS refresh subject and turns
// "refresh" messages into coordinator rebuild requests.
package listener

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/davamoreno/rekomendasi/internal/config"
	"github.com/davamoreno/rekomendasi/internal/metrics"
)

// refreshPayload is the only message body that triggers a rebuild.
// Anything else on the subject is counted and dropped.
const refreshPayload = "refresh"

// Refresher accepts rebuild requests. Implemented by engine.Coordinator.
type Refresher interface {
	Request()
}

// Listener is a suture service holding a NATS subscription for the
// lifetime of its Serve call.
type Listener struct {
	cfg         config.NATSConfig
	coordinator Refresher
	logger      zerolog.Logger
}

// New creates a refresh listener. The connection is established inside
// Serve so that the supervisor owns reconnect-after-crash behavior.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg config.NATSConfig, coordinator Refresher, logger zerolog.Logger) *Listener {
	return &Listener{
		cfg:         cfg,
		coordinator: coordinator,
		logger:      logger.With().Str("component", "refresh-listener").Logger(),
	}
}

// Serve connects to NATS, subscribes to the refresh subject and blocks
// until the context is cancelled. Implements suture.Service.
func (l *Listener) Serve(ctx context.Context) error {
	nc, err := nats.Connect(l.cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(l.cfg.MaxReconnects),
		nats.ReconnectWait(l.cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			l.logger.Warn().Err(err).Msg("NATS connection lost")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			l.logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", l.cfg.URL, err)
	}
	defer nc.Close()

	sub, err := nc.Subscribe(l.cfg.Subject, func(msg *nats.Msg) {
		l.handle(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", l.cfg.Subject, err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			l.logger.Warn().Err(err).Msg("unsubscribe failed")
		}
	}()

	l.logger.Info().
		Str("url", l.cfg.URL).
		Str("subject", l.cfg.Subject).
		Msg("listening for refresh signals")

	<-ctx.Done()
	l.logger.Info().Msg("refresh listener shutting down")
	return ctx.Err()
}

// handle classifies one message. Whitespace around the payload is
// tolerated; publishers vary in how they frame the signal.
func (l *Listener) handle(data []byte) {
	if strings.TrimSpace(string(data)) != refreshPayload {
		metrics.RefreshSignals.WithLabelValues("ignored").Inc()
		l.logger.Debug().
			Str("payload", string(data)).
			Msg("ignoring message on refresh subject")
		return
	}

	metrics.RefreshSignals.WithLabelValues("triggered").Inc()
	l.coordinator.Request()
	l.logger.Info().Msg("refresh signal received, rebuild requested")
}

// String returns the service name for supervisor logging.
func (l *Listener) String() string {
	return "refresh-listener"
}
