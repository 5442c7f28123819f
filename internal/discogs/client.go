// Package discogs brokers vinyl release search to the Discogs database API.
// Database search needs no OAuth, only a descriptive User-Agent; results are
// cached per query for a short TTL.
package discogs

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

// ErrRateLimited maps Discogs' 429.
var ErrRateLimited = errors.New("discogs: too many requests")

const defaultBaseURL = "https://api.discogs.com"

type cacheEntry struct {
	results []types.Vinyl
	total   int
	at      time.Time
}

type Client struct {
	userAgent string
	baseURL   string
	http      *http.Client
	ttl       time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func New(userAgent string, timeout, cacheTTL time.Duration) *Client {
	return &Client{
		userAgent: userAgent,
		baseURL:   defaultBaseURL,
		http:      &http.Client{Timeout: timeout},
		ttl:       cacheTTL,
		cache:     map[string]cacheEntry{},
	}
}

type searchResponse struct {
	Pagination struct {
		Items int `json:"items"`
	} `json:"pagination"`
	Results []struct {
		ID      int    `json:"id"`
		Title   string `json:"title"` // usually "Artist – Album"
		Year    string `json:"year"`
		Thumb   string `json:"thumb"`
		Artists []struct {
			Name string `json:"name"`
		} `json:"artists"`
	} `json:"results"`
}

// Search runs a release search and maps results to vinyl candidates. Entries
// without a resolvable artist and album are dropped.
func (c *Client) Search(ctx context.Context, query string) ([]types.Vinyl, int, error) {
	cacheKey := strings.ToLower(query)
	c.mu.Lock()
	if e, ok := c.cache[cacheKey]; ok && time.Since(e.at) < c.ttl {
		c.mu.Unlock()
		return e.results, e.total, nil
	}
	c.mu.Unlock()

	endpoint := fmt.Sprintf("%s/database/search?q=%s&type=release&per_page=25",
		c.baseURL, url.QueryEscape(query))

	var data searchResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return backoff.Permanent(ErrRateLimited)
		case resp.StatusCode >= 500:
			return fmt.Errorf("discogs server error: %s", strings.TrimSpace(string(body)))
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("discogs: %s", apiMessage(body)))
		}
		if err := json.Unmarshal(body, &data); err != nil {
			return backoff.Permanent(fmt.Errorf("discogs decode: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, 0, err
	}

	results := mapResults(data)
	total := data.Pagination.Items
	if total == 0 {
		total = len(results)
	}

	c.mu.Lock()
	c.cache[cacheKey] = cacheEntry{results: results, total: total, at: time.Now()}
	c.mu.Unlock()
	return results, total, nil
}

func mapResults(data searchResponse) []types.Vinyl {
	out := make([]types.Vinyl, 0, len(data.Results))
	for _, r := range data.Results {
		artist := ""
		if len(r.Artists) > 0 {
			artist = r.Artists[0].Name
		}
		// Most search results carry no artists array; split the
		// "Artist – Album" title instead (en dash separator).
		if artist == "" && strings.Contains(r.Title, " – ") {
			artist = strings.TrimSpace(strings.SplitN(r.Title, " – ", 2)[0])
		}
		if artist == "" || r.Title == "" {
			continue
		}
		year := 0
		fmt.Sscanf(r.Year, "%d", &year)
		out = append(out, types.Vinyl{
			ArtistName: artist,
			AlbumName:  r.Title,
			Year:       year,
			ThumbURL:   r.Thumb,
			Source:     "discogs",
		})
	}
	return out
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
