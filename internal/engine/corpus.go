// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

package engine

import (
	"regexp"
	"strings"
)

// Product is one catalog row with its tag names already aggregated.
// The zero value of every text field normalizes to the empty string, so
// NULL columns from the store need no special handling upstream.
type Product struct {
	ID          int64
	Title       string
	Description string
	Detail      string
	Tags        []string
}

var (
	markupPattern   = regexp.MustCompile(`<[^>]*>`)
	nonAlnumPattern = regexp.MustCompile(`[^a-z0-9\s]`)
)

// CleanText normalizes free text for the similarity model: lowercase,
// markup-like substrings (`<...>`) stripped, every character outside
// [a-z0-9\s] dropped. Whitespace is preserved as-is.
func CleanText(s string) string {
	s = strings.ToLower(s)
	s = markupPattern.ReplaceAllString(s, "")
	return nonAlnumPattern.ReplaceAllString(s, "")
}

// ContentSoup composes the weighted text the vectorizer operates on.
// Title and tags are repeated three times to bias term frequencies
// toward them; description and detail appear once.
func (p Product) ContentSoup() string {
	title := CleanText(p.Title)
	tags := CleanText(strings.Join(p.Tags, " "))

	parts := []string{
		title, title, title,
		tags, tags, tags,
		CleanText(p.Description),
		CleanText(p.Detail),
	}
	return strings.Join(parts, " ")
}
