// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

package database

import (
	"errors"
	"fmt"
)

// ErrDataSource marks store unreachability or query failure. Callers
// treat it as fatal for the attempted rebuild or batch run, never for
// the hosting process: check with errors.Is(err, ErrDataSource).
var ErrDataSource = errors.New("data source error")

// dataSourceError wraps err as an ErrDataSource with operation context.
func dataSourceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDataSource, op, err)
}
