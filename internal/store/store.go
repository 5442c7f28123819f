// Package store persists profiles, collectibles and aggregate summaries in
// SQLite. Summaries are stored wholesale as JSON alongside their headline
// scalars: an aggregation run supersedes the previous one entirely, so there
// is nothing to merge at this layer.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"herd-tracker-go/internal/types"
)

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id      TEXT PRIMARY KEY,
	username     TEXT UNIQUE NOT NULL,
	display_name TEXT,
	bio          TEXT,
	avatar_url   TEXT,
	updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS concerts (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id   TEXT NOT NULL,
	artist    TEXT NOT NULL,
	tour      TEXT,
	date      TEXT,
	venue     TEXT,
	city      TEXT,
	source    TEXT,
	is_public INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS vinyl (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     TEXT NOT NULL,
	artist_name TEXT NOT NULL,
	album_name  TEXT NOT NULL,
	year        INTEGER,
	thumb_url   TEXT,
	source      TEXT,
	is_public   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS merch (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id   TEXT NOT NULL,
	name      TEXT NOT NULL,
	artist    TEXT,
	kind      TEXT,
	notes     TEXT,
	is_public INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS streaming_stats (
	user_id      TEXT PRIMARY KEY,
	summary_json TEXT NOT NULL,
	total_hours  REAL NOT NULL,
	total_records INTEGER NOT NULL,
	imported_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_youtube (
	user_id          TEXT PRIMARY KEY,
	refresh_token    TEXT,
	access_token     TEXT,
	token_expires_at DATETIME,
	library_json     TEXT,
	last_fetched_at  DATETIME,
	updated_at       DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_youtube_takeout (
	user_id             TEXT PRIMARY KEY,
	summary_json        TEXT NOT NULL,
	video_count         INTEGER NOT NULL,
	total_watch_minutes REAL NOT NULL,
	imported_at         DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// --- profiles ---

func (s *Store) UpsertProfile(p types.Profile) error {
	_, err := s.db.Exec(`
		INSERT INTO profiles (user_id, username, display_name, bio, avatar_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			bio = excluded.bio,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at`,
		p.UserID, p.Username, p.DisplayName, p.Bio, p.AvatarURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(userID string) (types.Profile, bool, error) {
	return s.profileBy("user_id", userID)
}

func (s *Store) GetProfileByUsername(username string) (types.Profile, bool, error) {
	return s.profileBy("username", username)
}

func (s *Store) profileBy(col, val string) (types.Profile, bool, error) {
	var p types.Profile
	var displayName, bio, avatar sql.NullString
	err := s.db.QueryRow(
		"SELECT user_id, username, display_name, bio, avatar_url FROM profiles WHERE "+col+" = ?", val,
	).Scan(&p.UserID, &p.Username, &displayName, &bio, &avatar)
	if err == sql.ErrNoRows {
		return types.Profile{}, false, nil
	}
	if err != nil {
		return types.Profile{}, false, fmt.Errorf("get profile: %w", err)
	}
	p.DisplayName = displayName.String
	p.Bio = bio.String
	p.AvatarURL = avatar.String
	return p, true, nil
}

// --- aggregate summaries ---

func (s *Store) SaveStreamingStats(userID string, sum types.MusicSummary) error {
	blob, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO streaming_stats (user_id, summary_json, total_hours, total_records, imported_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			summary_json = excluded.summary_json,
			total_hours = excluded.total_hours,
			total_records = excluded.total_records,
			imported_at = excluded.imported_at`,
		userID, string(blob), sum.TotalHours, sum.TotalRecords, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save streaming stats: %w", err)
	}
	return nil
}

func (s *Store) GetStreamingStats(userID string) (types.MusicSummary, bool, error) {
	var blob string
	err := s.db.QueryRow(
		"SELECT summary_json FROM streaming_stats WHERE user_id = ?", userID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return types.MusicSummary{}, false, nil
	}
	if err != nil {
		return types.MusicSummary{}, false, fmt.Errorf("get streaming stats: %w", err)
	}
	var sum types.MusicSummary
	if err := json.Unmarshal([]byte(blob), &sum); err != nil {
		return types.MusicSummary{}, false, fmt.Errorf("decode streaming stats: %w", err)
	}
	return sum, true, nil
}

func (s *Store) SaveTakeoutStats(userID string, sum types.WatchSummary) error {
	blob, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO user_youtube_takeout (user_id, summary_json, video_count, total_watch_minutes, imported_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			summary_json = excluded.summary_json,
			video_count = excluded.video_count,
			total_watch_minutes = excluded.total_watch_minutes,
			imported_at = excluded.imported_at`,
		userID, string(blob), sum.VideoCount, sum.TotalWatchMinutes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save takeout stats: %w", err)
	}
	return nil
}

func (s *Store) GetTakeoutStats(userID string) (types.WatchSummary, bool, error) {
	var blob string
	err := s.db.QueryRow(
		"SELECT summary_json FROM user_youtube_takeout WHERE user_id = ?", userID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return types.WatchSummary{}, false, nil
	}
	if err != nil {
		return types.WatchSummary{}, false, fmt.Errorf("get takeout stats: %w", err)
	}
	var sum types.WatchSummary
	if err := json.Unmarshal([]byte(blob), &sum); err != nil {
		return types.WatchSummary{}, false, fmt.Errorf("decode takeout stats: %w", err)
	}
	return sum, true, nil
}
