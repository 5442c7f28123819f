package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// YouTubeTokens is the OAuth state for one connected account.
type YouTubeTokens struct {
	RefreshToken string
	AccessToken  string
	ExpiresAt    time.Time
}

func (s *Store) SaveYouTubeTokens(userID string, t YouTubeTokens) error {
	_, err := s.db.Exec(`
		INSERT INTO user_youtube (user_id, refresh_token, access_token, token_expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			refresh_token = CASE WHEN excluded.refresh_token != '' THEN excluded.refresh_token ELSE user_youtube.refresh_token END,
			access_token = excluded.access_token,
			token_expires_at = excluded.token_expires_at,
			updated_at = excluded.updated_at`,
		userID, t.RefreshToken, t.AccessToken, t.ExpiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save youtube tokens: %w", err)
	}
	return nil
}

func (s *Store) GetYouTubeTokens(userID string) (YouTubeTokens, bool, error) {
	var t YouTubeTokens
	var refresh, access sql.NullString
	var expires sql.NullTime
	err := s.db.QueryRow(
		"SELECT refresh_token, access_token, token_expires_at FROM user_youtube WHERE user_id = ?",
		userID,
	).Scan(&refresh, &access, &expires)
	if err == sql.ErrNoRows {
		return YouTubeTokens{}, false, nil
	}
	if err != nil {
		return YouTubeTokens{}, false, fmt.Errorf("get youtube tokens: %w", err)
	}
	t.RefreshToken = refresh.String
	t.AccessToken = access.String
	t.ExpiresAt = expires.Time
	return t, true, nil
}

// GetYouTubeLibrary returns the stored library snapshot and when it was
// fetched. found is false when the user never synced.
func (s *Store) GetYouTubeLibrary(userID string) (json.RawMessage, time.Time, bool, error) {
	var blob sql.NullString
	var fetched sql.NullTime
	err := s.db.QueryRow(
		"SELECT library_json, last_fetched_at FROM user_youtube WHERE user_id = ?", userID,
	).Scan(&blob, &fetched)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("get youtube library: %w", err)
	}
	if !blob.Valid || blob.String == "" {
		return nil, time.Time{}, false, nil
	}
	return json.RawMessage(blob.String), fetched.Time, true, nil
}

// SaveYouTubeLibrary stores the synced library snapshot (channel,
// subscriptions, playlists, likes) as one JSON document.
func (s *Store) SaveYouTubeLibrary(userID string, library any) error {
	blob, err := json.Marshal(library)
	if err != nil {
		return fmt.Errorf("marshal library: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT INTO user_youtube (user_id, library_json, last_fetched_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			library_json = excluded.library_json,
			last_fetched_at = excluded.last_fetched_at,
			updated_at = excluded.updated_at`,
		userID, string(blob), now, now)
	if err != nil {
		return fmt.Errorf("save youtube library: %w", err)
	}
	return nil
}
