package normalize

import (
	"testing"
	"time"
)

func TestLooksLikeEvents(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{"spotify record", []any{map[string]any{"ms_played": 300000.0}}, true},
		{"timestamp only", []any{map[string]any{"ts": "2023-01-01T00:00:00Z"}}, true},
		{"takeout record", []any{map[string]any{"titleUrl": "https://youtu.be/x"}}, true},
		{"empty array", []any{}, false},
		{"array of scalars", []any{"a", "b"}, false},
		{"no sentinel fields", []any{map[string]any{"foo": "bar"}}, false},
		{"not an array", map[string]any{"ms_played": 1.0}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksLikeEvents(tt.in); got != tt.want {
				t.Errorf("LooksLikeEvents() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecords(t *testing.T) {
	events := []any{map[string]any{"ms_played": 1000.0, "ts": "2023-05-01T10:00:00Z"}}

	t.Run("bare array passes through", func(t *testing.T) {
		got := Records(events)
		if len(got) != 1 {
			t.Fatalf("got %d records, want 1", len(got))
		}
	})

	t.Run("wrapped array is found", func(t *testing.T) {
		got := Records(map[string]any{"history": events})
		if len(got) != 1 {
			t.Fatalf("got %d records, want 1", len(got))
		}
	})

	t.Run("object with no event array", func(t *testing.T) {
		if got := Records(map[string]any{"foo": "bar"}); len(got) != 0 {
			t.Fatalf("got %d records, want 0", len(got))
		}
	})

	t.Run("wrapped non-event array is skipped", func(t *testing.T) {
		in := map[string]any{"tags": []any{"a", "b"}}
		if got := Records(in); len(got) != 0 {
			t.Fatalf("got %d records, want 0", len(got))
		}
	})

	t.Run("scalar degrades to empty", func(t *testing.T) {
		if got := Records("nope"); len(got) != 0 {
			t.Fatalf("got %d records, want 0", len(got))
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		got := Parse([]byte(`[{"ms_played": 5, "ts": "2023-01-01T00:00:00Z"}]`))
		if len(got) != 1 {
			t.Fatalf("got %d records, want 1", len(got))
		}
	})
	t.Run("invalid json degrades to empty", func(t *testing.T) {
		if got := Parse([]byte(`{not json`)); got != nil {
			t.Fatalf("got %v, want nil", got)
		}
	})
}

func TestStrAndNum(t *testing.T) {
	m := map[string]any{
		"title":     "",
		"name":      "fallback",
		"ms_played": 250.0,
		"bad":       "250",
	}
	if got := Str(m, "title", "name"); got != "fallback" {
		t.Errorf("Str fallback = %q, want %q", got, "fallback")
	}
	if got := Str(m, "missing"); got != "" {
		t.Errorf("Str missing = %q, want empty", got)
	}
	if got, ok := Num(m, "ms_played"); !ok || got != 250 {
		t.Errorf("Num = %v, %v; want 250, true", got, ok)
	}
	if _, ok := Num(m, "bad"); ok {
		t.Error("Num coerced a string; want ok=false")
	}
	if _, ok := Num(m, "missing"); ok {
		t.Error("Num found a missing field")
	}
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		m      map[string]any
		wantOK bool
		want   time.Time
	}{
		{
			"rfc3339",
			map[string]any{"ts": "2023-06-15T08:30:00Z"},
			true,
			time.Date(2023, 6, 15, 8, 30, 0, 0, time.UTC),
		},
		{
			"date only",
			map[string]any{"time": "2021-11-02"},
			true,
			time.Date(2021, 11, 2, 0, 0, 0, 0, time.UTC),
		},
		{"garbage", map[string]any{"ts": "not a date"}, false, time.Time{}},
		{"absent", map[string]any{}, false, time.Time{}},
		{"non-string", map[string]any{"ts": 12345.0}, false, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Timestamp(tt.m, "ts", "time")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.166666, 0.2},
		{0.05, 0.1}, // half rounds up
		{0.04, 0},
		{8, 8},
		{12.34, 12.3},
	}
	for _, tt := range tests {
		if got := Round1(tt.in); got != tt.want {
			t.Errorf("Round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
