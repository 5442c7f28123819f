// Package youtube handles the Google OAuth dance and read-only library sync
// for connected YouTube accounts.
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	authEndpoint  = "https://accounts.google.com/o/oauth2/v2/auth"
	tokenEndpoint = "https://oauth2.googleapis.com/token"
	scope         = "https://www.googleapis.com/auth/youtube.readonly"

	stateTTL = 10 * time.Minute
	// refreshSkew renews access tokens this long before actual expiry.
	refreshSkew = time.Minute
)

// StateStore issues and redeems short-lived OAuth state tokens so the
// callback can be tied back to the initiating user.
type StateStore struct {
	mu     sync.Mutex
	states map[string]stateEntry
}

type stateEntry struct {
	userID    string
	createdAt time.Time
}

func NewStateStore() *StateStore {
	return &StateStore{states: map[string]stateEntry{}}
}

// Issue mints a state token bound to a user.
func (s *StateStore) Issue(userID string) string {
	state := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.states[state] = stateEntry{userID: userID, createdAt: time.Now()}
	return state
}

// Redeem consumes a state token, returning the bound user. Expired or unknown
// tokens fail; a token redeems at most once.
func (s *StateStore) Redeem(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.states[state]
	delete(s.states, state)
	if !ok || time.Since(e.createdAt) > stateTTL {
		return "", false
	}
	return e.userID, true
}

func (s *StateStore) prune() {
	now := time.Now()
	for k, e := range s.states {
		if now.Sub(e.createdAt) > stateTTL {
			delete(s.states, k)
		}
	}
}

// Tokens is one OAuth grant.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token needs renewing, with skew.
func (t Tokens) Expired() bool {
	return t.AccessToken == "" || time.Now().After(t.ExpiresAt.Add(-refreshSkew))
}

type Service struct {
	clientID     string
	clientSecret string
	redirectURI  string
	apiBase      string
	tokenURL     string
	http         *http.Client
}

func New(clientID, clientSecret, redirectURI string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		apiBase:      "https://www.googleapis.com/youtube/v3",
		tokenURL:     tokenEndpoint,
		http:         &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether OAuth credentials are present; endpoints answer
// 503 when they are not.
func (s *Service) Configured() bool {
	return s.clientID != "" && s.clientSecret != "" && s.redirectURI != ""
}

// AuthURL builds the Google consent URL for a state token.
func (s *Service) AuthURL(state string) string {
	q := url.Values{
		"client_id":     {s.clientID},
		"redirect_uri":  {s.redirectURI},
		"response_type": {"code"},
		"scope":         {scope},
		"access_type":   {"offline"},
		"prompt":        {"consent"},
		"state":         {state},
	}
	return authEndpoint + "?" + q.Encode()
}

// Exchange trades an authorization code for tokens.
func (s *Service) Exchange(ctx context.Context, code string) (Tokens, error) {
	return s.tokenRequest(ctx, url.Values{
		"code":          {code},
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
		"redirect_uri":  {s.redirectURI},
		"grant_type":    {"authorization_code"},
	})
}

// Refresh renews an access token from a refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	t, err := s.tokenRequest(ctx, url.Values{
		"refresh_token": {refreshToken},
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
		"grant_type":    {"refresh_token"},
	})
	if err != nil {
		return Tokens{}, err
	}
	// Google omits the refresh token on renewals; keep the old one.
	if t.RefreshToken == "" {
		t.RefreshToken = refreshToken
	}
	return t, nil
}

func (s *Service) tokenRequest(ctx context.Context, form url.Values) (Tokens, error) {
	var parsed struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL,
			strings.NewReader(form.Encode()))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode >= 500 {
			return fmt.Errorf("google token endpoint: %s", strings.TrimSpace(string(body)))
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("google token endpoint: %s", strings.TrimSpace(string(body))))
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("token decode: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 12 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return Tokens{}, err
	}
	if parsed.AccessToken == "" {
		return Tokens{}, fmt.Errorf("token response missing access_token")
	}

	t := Tokens{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
	}
	if parsed.ExpiresIn > 0 {
		t.ExpiresAt = time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	}
	return t, nil
}
