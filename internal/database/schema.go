// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the tables this service reads and writes.
// The catalog tables are normally populated by the storefront; they are
// created here as well so a fresh database is immediately usable in
// development and tests.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGINT PRIMARY KEY,
		title       VARCHAR,
		description VARCHAR,
		detail      VARCHAR,
		category_id BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id   BIGINT PRIMARY KEY,
		name VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS product_tags (
		product_id BIGINT NOT NULL,
		tag_id     BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS product_views (
		user_id    BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		viewed_at  TIMESTAMP DEFAULT current_timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS user_dashboard_recommendations (
		user_id    BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		score      BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// initSchema creates missing tables. Idempotent.
func (db *DB) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}
