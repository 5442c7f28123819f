package types

// Profile is the user-facing identity row. Auth itself lives outside this
// service; the user id is an opaque key supplied by the caller.
type Profile struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type Concert struct {
	ID       int64  `json:"id,omitempty"`
	Artist   string `json:"artist"`
	Tour     string `json:"tour,omitempty"`
	Date     string `json:"date,omitempty"` // YYYY-MM-DD
	Venue    string `json:"venue,omitempty"`
	City     string `json:"city,omitempty"`
	Source   string `json:"source,omitempty"`
	IsPublic bool   `json:"is_public"`
}

type Vinyl struct {
	ID         int64  `json:"id,omitempty"`
	ArtistName string `json:"artist_name"`
	AlbumName  string `json:"album_name"`
	Year       int    `json:"year,omitempty"`
	ThumbURL   string `json:"thumb_url,omitempty"`
	Source     string `json:"source,omitempty"`
	IsPublic   bool   `json:"is_public"`
}

type Merch struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Artist   string `json:"artist,omitempty"`
	Kind     string `json:"kind,omitempty"` // shirt, poster, ...
	Notes    string `json:"notes,omitempty"`
	IsPublic bool   `json:"is_public"`
}

// PublicProfile is the curated read-only view served for a username: the
// profile row plus only the rows explicitly marked public, and whatever
// aggregate summaries exist.
type PublicProfile struct {
	Profile  Profile       `json:"profile"`
	Concerts []Concert     `json:"concerts"`
	Vinyl    []Vinyl       `json:"vinyl"`
	Merch    []Merch       `json:"merch"`
	Music    *MusicSummary `json:"music,omitempty"`
	Watch    *WatchSummary `json:"watch,omitempty"`
}
