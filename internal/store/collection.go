package store

import (
	"database/sql"
	"fmt"

	"herd-tracker-go/internal/types"
)

// Collectible rows (concerts, vinyl, merch) are plain per-user lists with an
// is_public curation flag; the public profile view reads only flagged rows.

func (s *Store) AddConcert(userID string, c types.Concert) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO concerts (user_id, artist, tour, date, venue, city, source, is_public)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, c.Artist, c.Tour, c.Date, c.Venue, c.City, c.Source, boolInt(c.IsPublic))
	if err != nil {
		return 0, fmt.Errorf("add concert: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) ListConcerts(userID string, publicOnly bool) ([]types.Concert, error) {
	rows, err := s.db.Query(
		"SELECT id, artist, tour, date, venue, city, source, is_public FROM concerts WHERE user_id = ?"+publicClause(publicOnly)+" ORDER BY date DESC, id DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list concerts: %w", err)
	}
	defer rows.Close()

	var out []types.Concert
	for rows.Next() {
		var c types.Concert
		var tour, date, venue, city, source sql.NullString
		var pub int
		if err := rows.Scan(&c.ID, &c.Artist, &tour, &date, &venue, &city, &source, &pub); err != nil {
			return nil, fmt.Errorf("scan concert: %w", err)
		}
		c.Tour, c.Date, c.Venue, c.City, c.Source = tour.String, date.String, venue.String, city.String, source.String
		c.IsPublic = pub == 1
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteConcert(userID string, id int64) error {
	return s.deleteRow("concerts", userID, id)
}

func (s *Store) SetConcertPublic(userID string, id int64, public bool) error {
	return s.setPublic("concerts", userID, id, public)
}

func (s *Store) AddVinyl(userID string, v types.Vinyl) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO vinyl (user_id, artist_name, album_name, year, thumb_url, source, is_public)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, v.ArtistName, v.AlbumName, v.Year, v.ThumbURL, v.Source, boolInt(v.IsPublic))
	if err != nil {
		return 0, fmt.Errorf("add vinyl: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) ListVinyl(userID string, publicOnly bool) ([]types.Vinyl, error) {
	rows, err := s.db.Query(
		"SELECT id, artist_name, album_name, year, thumb_url, source, is_public FROM vinyl WHERE user_id = ?"+publicClause(publicOnly)+" ORDER BY id DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list vinyl: %w", err)
	}
	defer rows.Close()

	var out []types.Vinyl
	for rows.Next() {
		var v types.Vinyl
		var year sql.NullInt64
		var thumb, source sql.NullString
		var pub int
		if err := rows.Scan(&v.ID, &v.ArtistName, &v.AlbumName, &year, &thumb, &source, &pub); err != nil {
			return nil, fmt.Errorf("scan vinyl: %w", err)
		}
		v.Year = int(year.Int64)
		v.ThumbURL, v.Source = thumb.String, source.String
		v.IsPublic = pub == 1
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) DeleteVinyl(userID string, id int64) error {
	return s.deleteRow("vinyl", userID, id)
}

func (s *Store) SetVinylPublic(userID string, id int64, public bool) error {
	return s.setPublic("vinyl", userID, id, public)
}

func (s *Store) AddMerch(userID string, m types.Merch) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO merch (user_id, name, artist, kind, notes, is_public)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, m.Name, m.Artist, m.Kind, m.Notes, boolInt(m.IsPublic))
	if err != nil {
		return 0, fmt.Errorf("add merch: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) ListMerch(userID string, publicOnly bool) ([]types.Merch, error) {
	rows, err := s.db.Query(
		"SELECT id, name, artist, kind, notes, is_public FROM merch WHERE user_id = ?"+publicClause(publicOnly)+" ORDER BY id DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list merch: %w", err)
	}
	defer rows.Close()

	var out []types.Merch
	for rows.Next() {
		var m types.Merch
		var artist, kind, notes sql.NullString
		var pub int
		if err := rows.Scan(&m.ID, &m.Name, &artist, &kind, &notes, &pub); err != nil {
			return nil, fmt.Errorf("scan merch: %w", err)
		}
		m.Artist, m.Kind, m.Notes = artist.String, kind.String, notes.String
		m.IsPublic = pub == 1
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) DeleteMerch(userID string, id int64) error {
	return s.deleteRow("merch", userID, id)
}

func (s *Store) SetMerchPublic(userID string, id int64, public bool) error {
	return s.setPublic("merch", userID, id, public)
}

// PublicProfile assembles the curated read-only view for a username.
func (s *Store) PublicProfile(username string) (types.PublicProfile, bool, error) {
	profile, ok, err := s.GetProfileByUsername(username)
	if err != nil || !ok {
		return types.PublicProfile{}, ok, err
	}

	out := types.PublicProfile{Profile: profile}
	if out.Concerts, err = s.ListConcerts(profile.UserID, true); err != nil {
		return types.PublicProfile{}, false, err
	}
	if out.Vinyl, err = s.ListVinyl(profile.UserID, true); err != nil {
		return types.PublicProfile{}, false, err
	}
	if out.Merch, err = s.ListMerch(profile.UserID, true); err != nil {
		return types.PublicProfile{}, false, err
	}
	if music, ok, err := s.GetStreamingStats(profile.UserID); err != nil {
		return types.PublicProfile{}, false, err
	} else if ok {
		out.Music = &music
	}
	if watch, ok, err := s.GetTakeoutStats(profile.UserID); err != nil {
		return types.PublicProfile{}, false, err
	} else if ok {
		out.Watch = &watch
	}
	return out, true, nil
}

func (s *Store) deleteRow(table, userID string, id int64) error {
	_, err := s.db.Exec("DELETE FROM "+table+" WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

func (s *Store) setPublic(table, userID string, id int64, public bool) error {
	_, err := s.db.Exec("UPDATE "+table+" SET is_public = ? WHERE user_id = ? AND id = ?",
		boolInt(public), userID, id)
	if err != nil {
		return fmt.Errorf("curate %s: %w", table, err)
	}
	return nil
}

func publicClause(publicOnly bool) string {
	if publicOnly {
		return " AND is_public = 1"
	}
	return ""
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
