// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davamoreno/rekomendasi/internal/logging"
	"github.com/davamoreno/rekomendasi/internal/profiler"
)

// Interactions returns the full view history ordered by user then
// product, giving the profiler a stable input order. Implements
// profiler.InteractionSource.
func (db *DB) Interactions(ctx context.Context) ([]profiler.Interaction, error) {
	query := `
		SELECT user_id, product_id
		FROM product_views
		ORDER BY user_id, product_id
	`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, dataSourceError("query interactions", err)
	}
	defer rows.Close()

	var interactions []profiler.Interaction
	for rows.Next() {
		var in profiler.Interaction
		if err := rows.Scan(&in.UserID, &in.ProductID); err != nil {
			return nil, dataSourceError("scan interaction", err)
		}
		interactions = append(interactions, in)
	}
	if err := rows.Err(); err != nil {
		return nil, dataSourceError("iterate interactions", err)
	}
	return interactions, nil
}

// ProductFeatures returns the product feature table: one row per
// (product, tag) pair, or a single row with NULL tag for untagged
// products. Implements profiler.FeatureSource.
func (db *DB) ProductFeatures(ctx context.Context) ([]profiler.ProductFeature, error) {
	query := `
		SELECT p.id AS product_id, p.category_id, t.id AS tag_id
		FROM products AS p
		LEFT JOIN product_tags AS pt ON p.id = pt.product_id
		LEFT JOIN tags AS t ON pt.tag_id = t.id
		ORDER BY p.id, t.id
	`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, dataSourceError("query product features", err)
	}
	defer rows.Close()

	var features []profiler.ProductFeature
	for rows.Next() {
		var (
			productID  int64
			categoryID sql.NullInt64
			tagID      sql.NullInt64
		)
		if err := rows.Scan(&productID, &categoryID, &tagID); err != nil {
			return nil, dataSourceError("scan product feature", err)
		}

		f := profiler.ProductFeature{ProductID: productID}
		if categoryID.Valid {
			f.CategoryID = &categoryID.Int64
		}
		if tagID.Valid {
			f.TagID = &tagID.Int64
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, dataSourceError("iterate product features", err)
	}
	return features, nil
}

// ReplaceRecommendations atomically replaces the recommendation table:
// delete everything, bulk-insert the new rows, commit. Readers of the
// table never observe a half-replaced state. Implements
// profiler.RecommendationSink.
func (db *DB) ReplaceRecommendations(ctx context.Context, recs []profiler.Recommendation) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return dataSourceError("begin transaction", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			logging.Warn().Err(rbErr).Msg("rollback after replace failure")
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_dashboard_recommendations`); err != nil {
		return dataSourceError("truncate recommendations", err)
	}

	if len(recs) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO user_dashboard_recommendations
				(user_id, product_id, score, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return dataSourceError("prepare insert", err)
		}
		defer stmt.Close()

		for _, r := range recs {
			if _, err := stmt.ExecContext(ctx, r.UserID, r.ProductID, r.Score, r.CreatedAt, r.UpdatedAt); err != nil {
				return dataSourceError(fmt.Sprintf("insert recommendation for user %d", r.UserID), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return dataSourceError("commit replace", err)
	}
	return nil
}
