// Package normalize extracts usable event lists from arbitrarily shaped
// export files. Streaming exports and Takeout watch history both arrive as
// either a bare JSON array of records or an object wrapping such an array
// under some key; the normalizer sniffs the shape and degrades unrecognized
// input to "no records" instead of failing the batch.
package normalize

import (
	"math"
	"time"

	"github.com/goccy/go-json"
)

// sentinelKeys mark an object as an export event: a play-duration field, a
// primary-timestamp field, or a track/video identity field.
var sentinelKeys = []string{
	"ms_played",
	"msPlayed",
	"ts",
	"time",
	"timestamp",
	"master_metadata_track_name",
	"trackName",
	"titleUrl",
	"title",
}

// LooksLikeEvents reports whether v is a non-empty array whose first element
// is an object carrying at least one sentinel field.
func LooksLikeEvents(v any) bool {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return false
	}
	first, ok := arr[0].(map[string]any)
	if !ok {
		return false
	}
	for _, k := range sentinelKeys {
		if _, present := first[k]; present {
			return true
		}
	}
	return false
}

// Records returns the event list contained in one parsed file. Arrays pass
// through unchanged (the result aliases the input); for objects the first
// value satisfying LooksLikeEvents wins. Anything else yields an empty list.
func Records(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		// Decoded objects carry no key order; real exports wrap exactly one
		// event array, so any-key scan order is fine.
		for _, val := range t {
			if LooksLikeEvents(val) {
				return val.([]any)
			}
		}
	}
	return nil
}

// Parse decodes one raw file body and normalizes it. Invalid JSON degrades to
// an empty list; the rest of the batch is unaffected.
func Parse(data []byte) []any {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return Records(v)
}

// Str returns the first non-empty string among the named fields of a record.
func Str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Num returns the first numeric value among the named fields, and whether one
// was found. Non-numeric values are skipped, never coerced.
func Num(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp parses the first parseable timestamp among the named fields.
// Unparseable or absent timestamps report ok=false; callers exclude such
// records from date-bucketed series only, never from totals.
func Timestamp(m map[string]any, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		s, ok := m[k].(string)
		if !ok || s == "" {
			continue
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Round1 rounds to one decimal place, half away from zero. Displayed hour and
// minute figures are rounded exactly once, at the edge; accumulation stays
// unrounded to avoid compounding error.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
