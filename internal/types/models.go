package types

// ArtistRank is one entry in a music summary's artist ranking.
type ArtistRank struct {
	Name           string             `json:"name"`
	Hours          float64            `json:"hours"`
	Plays          int                `json:"plays"`
	MinutesByMonth map[string]float64 `json:"minutes_by_month,omitempty"`
}

// TrackRank is one entry in a music summary's track ranking. Identity is the
// (name, artist, album) triple; a missing album is the empty string.
type TrackRank struct {
	Name           string             `json:"name"`
	Artist         string             `json:"artist"`
	Album          string             `json:"album"`
	Hours          float64            `json:"hours"`
	Plays          int                `json:"plays"`
	MinutesByMonth map[string]float64 `json:"minutes_by_month,omitempty"`
}

// MusicSummary is the immutable result of one streaming-history aggregation
// run. It is built once from a full batch of export files and replaced
// wholesale by the next run.
type MusicSummary struct {
	TotalHours    float64      `json:"total_hours"`
	TotalRecords  int          `json:"total_records"`
	UniqueArtists int          `json:"unique_artists"`
	UniqueTracks  int          `json:"unique_tracks"`
	TopArtists    []ArtistRank `json:"top_artists"`
	TopTracks     []TrackRank  `json:"top_tracks"`
	StartDate     string       `json:"start_date,omitempty"`
	EndDate       string       `json:"end_date,omitempty"`
}

// ChannelRank is one entry in a watch summary's channel ranking.
type ChannelRank struct {
	Channel string  `json:"channel"`
	Minutes float64 `json:"minutes"`
	Watches int     `json:"watches"`
}

// VideoRank is one entry in a watch summary's video ranking. A video watched
// several times accumulates across watches rather than being deduplicated.
type VideoRank struct {
	Title   string  `json:"title"`
	Channel string  `json:"channel"`
	Minutes float64 `json:"minutes"`
	Watches int     `json:"watches"`
}

// MonthlyMinutes is one bucket of a monthly trend, keyed "YYYY-MM".
type MonthlyMinutes struct {
	Month   string  `json:"month"`
	Minutes float64 `json:"minutes"`
}

// WatchSummary is the immutable result of one watch-history aggregation run.
type WatchSummary struct {
	VideoCount        int              `json:"video_count"`
	TotalWatchMinutes float64          `json:"total_watch_minutes"`
	ChannelRankings   []ChannelRank    `json:"channel_rankings"`
	VideoRankings     []VideoRank      `json:"video_rankings"`
	MonthlyTrend      []MonthlyMinutes `json:"monthly_trend"`
	StartDate         string           `json:"start_date,omitempty"`
	EndDate           string           `json:"end_date,omitempty"`
}
