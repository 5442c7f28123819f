// Package setlistfm brokers concert search to the Setlist.fm REST API, with
// a short TTL cache in front so repeated autocomplete-style queries don't
// burn through the shared rate limit.
package setlistfm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"herd-tracker-go/internal/types"
)

var (
	// ErrRateLimited maps Setlist.fm's 429; callers surface a retry hint.
	ErrRateLimited = errors.New("setlistfm: too many requests")
	// ErrForbidden usually means a missing or rejected API key.
	ErrForbidden = errors.New("setlistfm: request rejected, check SETLIST_FM_API_KEY")
)

const defaultBaseURL = "https://api.setlist.fm/rest/1.0"

type cacheEntry struct {
	concerts []types.Concert
	total    int
	at       time.Time
}

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	ttl     time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func New(apiKey string, timeout, cacheTTL time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: timeout},
		ttl:     cacheTTL,
		cache:   map[string]cacheEntry{},
	}
}

type searchResponse struct {
	Total   int `json:"total"`
	Setlist []struct {
		EventDate string `json:"eventDate"` // dd-MM-yyyy
		Artist    struct {
			Name string `json:"name"`
		} `json:"artist"`
		Tour struct {
			Name string `json:"name"`
		} `json:"tour"`
		Venue struct {
			Name string `json:"name"`
			City struct {
				Name    string `json:"name"`
				Country struct {
					Code string `json:"code"`
				} `json:"country"`
			} `json:"city"`
		} `json:"venue"`
	} `json:"setlist"`
}

// Search looks up recent setlists for an artist and maps them to concert
// candidates. Results are cached per lowercased artist for the client's TTL.
func (c *Client) Search(ctx context.Context, artist string) ([]types.Concert, int, error) {
	cacheKey := strings.ToLower(artist)
	c.mu.Lock()
	if e, ok := c.cache[cacheKey]; ok && time.Since(e.at) < c.ttl {
		c.mu.Unlock()
		return e.concerts, e.total, nil
	}
	c.mu.Unlock()

	endpoint := fmt.Sprintf("%s/search/setlists?artistName=%s&p=1", c.baseURL, url.QueryEscape(artist))

	var data searchResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "HerdApp/1.0 (Concert search)")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return backoff.Permanent(ErrRateLimited)
		case resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(ErrForbidden)
		case resp.StatusCode >= 500:
			return fmt.Errorf("setlistfm server error: %s", strings.TrimSpace(string(body)))
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("setlistfm: %s", apiMessage(body)))
		}
		if err := json.Unmarshal(body, &data); err != nil {
			return backoff.Permanent(fmt.Errorf("setlistfm decode: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, 0, err
	}

	concerts := mapConcerts(data, artist)
	total := data.Total
	if total == 0 {
		total = len(concerts)
	}

	c.mu.Lock()
	c.cache[cacheKey] = cacheEntry{concerts: concerts, total: total, at: time.Now()}
	c.mu.Unlock()
	return concerts, total, nil
}

func mapConcerts(data searchResponse, artist string) []types.Concert {
	out := make([]types.Concert, 0, len(data.Setlist))
	for _, s := range data.Setlist {
		city := s.Venue.City.Name
		if city != "" && s.Venue.City.Country.Code != "" {
			city += ", " + s.Venue.City.Country.Code
		}
		name := s.Artist.Name
		if name == "" {
			name = artist
		}
		out = append(out, types.Concert{
			Artist: name,
			Tour:   s.Tour.Name,
			Date:   flipEventDate(s.EventDate),
			Venue:  s.Venue.Name,
			City:   city,
			Source: "setlist.fm",
		})
	}
	return out
}

// flipEventDate converts Setlist.fm's dd-MM-yyyy into yyyy-MM-dd.
func flipEventDate(d string) string {
	parts := strings.Split(d, "-")
	if len(parts) != 3 {
		return ""
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}

func apiMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return "search failed"
}
