// Package ranking holds read-side shaping helpers for already-aggregated
// lists: top-N slicing, percentage shares, and free-text filtering. Pure
// transforms with no side effects, usable straight from presentation code.
package ranking

import (
	"strings"

	"herd-tracker-go/internal/normalize"
)

// TopN returns the first n items of an already-sorted list. n <= 0 yields an
// empty slice; n past the end yields the whole list. The result aliases the
// input.
func TopN[T any](items []T, n int) []T {
	if n <= 0 {
		return items[:0]
	}
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// Share returns value's percentage of total, rounded to one decimal.
// A zero or negative total yields 0 rather than dividing by it.
func Share(value, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return normalize.Round1(value / total * 100)
}

// Filter keeps items whose searchable text contains the query,
// case-insensitively. An empty query keeps everything. text flattens one item
// to the string searched against (e.g. "name artist album 2019").
func Filter[T any](items []T, query string, text func(T) string) []T {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(text(item)), query) {
			out = append(out, item)
		}
	}
	return out
}
