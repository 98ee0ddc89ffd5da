// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/davamoreno/rekomendasi/internal/engine"
)

// ProductCatalog returns every product with its tag names aggregated,
// ordered by product id. The ordering is part of the contract: it fixes
// the similarity matrix layout, and repeated reads of unchanged data
// must produce an identical corpus. Implements engine.Store.
func (db *DB) ProductCatalog(ctx context.Context) ([]engine.Product, error) {
	query := `
		SELECT
			p.id, p.title, p.description, p.detail,
			COALESCE(string_agg(t.name, ' ' ORDER BY t.name), '') AS tags
		FROM products AS p
		LEFT JOIN product_tags AS pt ON p.id = pt.product_id
		LEFT JOIN tags AS t ON pt.tag_id = t.id
		GROUP BY p.id, p.title, p.description, p.detail
		ORDER BY p.id
	`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, dataSourceError("query product catalog", err)
	}
	defer rows.Close()

	var products []engine.Product
	for rows.Next() {
		var (
			id          int64
			title       sql.NullString
			description sql.NullString
			detail      sql.NullString
			tags        string
		)
		if err := rows.Scan(&id, &title, &description, &detail, &tags); err != nil {
			return nil, dataSourceError("scan product", err)
		}

		p := engine.Product{
			ID:          id,
			Title:       title.String,
			Description: description.String,
			Detail:      detail.String,
		}
		if tags != "" {
			p.Tags = strings.Fields(tags)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dataSourceError("iterate product catalog", err)
	}
	return products, nil
}

// touchTimeout is a small guard for cheap liveness checks.
const touchTimeout = 5 * time.Second

// Ready reports whether the store answers a trivial query.
func (db *DB) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, touchTimeout)
	defer cancel()
	if err := db.conn.PingContext(ctx); err != nil {
		return dataSourceError("ping", err)
	}
	return nil
}
