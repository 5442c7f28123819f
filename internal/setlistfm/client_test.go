package setlistfm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(srv *httptest.Server) *Client {
	c := New("test-key", 5*time.Second, 2*time.Minute)
	c.baseURL = srv.URL
	return c
}

const searchBody = `{
	"total": 2,
	"setlist": [
		{
			"eventDate": "03-11-2023",
			"artist": {"name": "LCD Soundsystem"},
			"tour": {"name": "2023 Residency"},
			"venue": {"name": "Knockdown Center", "city": {"name": "Queens", "country": {"code": "US"}}}
		},
		{
			"eventDate": "bogus",
			"artist": {},
			"venue": {"city": {"name": "Berlin"}}
		}
	]
}`

func TestSearchMapsSetlists(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	concerts, total, err := testClient(srv).Search(context.Background(), "LCD Soundsystem")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if total != 2 || len(concerts) != 2 {
		t.Fatalf("total=%d len=%d, want 2/2", total, len(concerts))
	}

	first := concerts[0]
	if first.Artist != "LCD Soundsystem" || first.Tour != "2023 Residency" {
		t.Errorf("first = %+v", first)
	}
	if first.Date != "2023-11-03" {
		t.Errorf("date = %q, want 2023-11-03 (flipped from dd-MM-yyyy)", first.Date)
	}
	if first.City != "Queens, US" {
		t.Errorf("city = %q, want Queens, US", first.City)
	}
	if first.Source != "setlist.fm" {
		t.Errorf("source = %q", first.Source)
	}

	second := concerts[1]
	if second.Artist != "LCD Soundsystem" {
		t.Errorf("missing artist should fall back to the query, got %q", second.Artist)
	}
	if second.Date != "" {
		t.Errorf("unparseable eventDate should map to empty, got %q", second.Date)
	}
	if second.City != "Berlin" {
		t.Errorf("city without country = %q, want Berlin", second.City)
	}
}

func TestSearchCaches(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	c := testClient(srv)
	ctx := context.Background()
	if _, _, err := c.Search(ctx, "Artist"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Search(ctx, "ARTIST"); err != nil { // case-insensitive cache key
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (second hit cached)", calls)
	}
}

func TestSearchRateLimitAndForbidden(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusForbidden, ErrForbidden},
	}
	for _, tt := range tests {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(tt.status)
		}))
		_, _, err := testClient(srv).Search(context.Background(), "X")
		srv.Close()
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
		if calls != 1 {
			t.Errorf("status %d retried %d times; 4xx must not retry", tt.status, calls)
		}
	}
}

func TestSearchRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	if _, _, err := testClient(srv).Search(context.Background(), "X"); err != nil {
		t.Fatalf("Search after retry: %v", err)
	}
	if calls < 2 {
		t.Errorf("calls = %d, want a retry after the 502", calls)
	}
}
