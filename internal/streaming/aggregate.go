// Package streaming folds Spotify Extended Streaming History exports into
// ranked listening statistics. The fold is pure and synchronous: fresh
// accumulator maps per call, no I/O, no shared state, so independent runs are
// safe to execute concurrently.
package streaming

import (
	"sort"
	"time"

	"herd-tracker-go/internal/normalize"
	"herd-tracker-go/internal/types"
)

const (
	msPerHour   = 3600000.0
	msPerMinute = 60000.0
)

// trackKey is the composite track identity. A struct key rather than a
// delimiter-joined string, so titles containing separator sequences cannot
// collide.
type trackKey struct {
	name   string
	artist string
	album  string
}

type accumulator struct {
	totalMs        float64
	playCount      int
	minutesByMonth map[string]float64
}

func (a *accumulator) fold(ms float64, month string) {
	a.totalMs += ms
	a.playCount++
	if month != "" {
		if a.minutesByMonth == nil {
			a.minutesByMonth = map[string]float64{}
		}
		a.minutesByMonth[month] += ms / msPerMinute
	}
}

// Aggregator folds batches of parsed export files into a MusicSummary.
// The zero value is ready to use.
type Aggregator struct {
	// KeyFunc maps an entity name to its matching key. Nil means exact,
	// case-sensitive identity, which is what the exports themselves use;
	// "Drake" and "drake" stay distinct entities.
	KeyFunc func(string) string
}

func (g Aggregator) key(name string) string {
	if g.KeyFunc == nil {
		return name
	}
	return g.KeyFunc(name)
}

// Aggregate folds every record of every file into one summary. Records
// lacking artist or track metadata (podcasts, audiobooks) still count toward
// total listening time and record count; they are only excluded from the
// entity rankings. Malformed records never abort the batch.
func (g Aggregator) Aggregate(files []any) types.MusicSummary {
	artists := map[string]*accumulator{}
	artistOrder := []string{}
	artistDisplay := map[string]string{}
	tracks := map[trackKey]*accumulator{}
	trackOrder := []trackKey{}
	trackDisplay := map[trackKey]string{}

	var totalMs float64
	totalRecords := 0
	var firstSeen, lastSeen time.Time

	for _, file := range files {
		for _, raw := range normalize.Records(file) {
			r, ok := raw.(map[string]any)
			if !ok {
				continue
			}

			ms, _ := normalize.Num(r, "ms_played", "msPlayed")
			if ms < 0 {
				ms = 0
			}
			totalMs += ms
			totalRecords++

			ts, hasTS := normalize.Timestamp(r, "ts", "timestamp")
			if hasTS {
				if firstSeen.IsZero() || ts.Before(firstSeen) {
					firstSeen = ts
				}
				if lastSeen.IsZero() || ts.After(lastSeen) {
					lastSeen = ts
				}
			}

			artist := normalize.Str(r, "master_metadata_album_artist_name", "artistName", "artist")
			track := normalize.Str(r, "master_metadata_track_name", "trackName", "track")
			if artist == "" || track == "" {
				continue
			}
			album := normalize.Str(r, "master_metadata_album_album_name", "albumName", "album")

			month := ""
			if hasTS {
				month = ts.Format("2006-01")
			}

			ak := g.key(artist)
			acc, ok := artists[ak]
			if !ok {
				acc = &accumulator{}
				artists[ak] = acc
				artistOrder = append(artistOrder, ak)
				artistDisplay[ak] = artist
			}
			acc.fold(ms, month)

			tk := trackKey{name: track, artist: g.key(artist), album: album}
			tacc, ok := tracks[tk]
			if !ok {
				tacc = &accumulator{}
				tracks[tk] = tacc
				trackOrder = append(trackOrder, tk)
				trackDisplay[tk] = artist
			}
			tacc.fold(ms, month)
		}
	}

	type artistEntry struct {
		name string
		acc  *accumulator
	}
	artistEntries := make([]artistEntry, 0, len(artistOrder))
	for _, k := range artistOrder {
		artistEntries = append(artistEntries, artistEntry{name: artistDisplay[k], acc: artists[k]})
	}
	// Ranked by listening time; stable sort keeps first-seen order on ties.
	sort.SliceStable(artistEntries, func(i, j int) bool {
		return artistEntries[i].acc.totalMs > artistEntries[j].acc.totalMs
	})
	topArtists := make([]types.ArtistRank, 0, len(artistEntries))
	for _, e := range artistEntries {
		topArtists = append(topArtists, types.ArtistRank{
			Name:           e.name,
			Hours:          normalize.Round1(e.acc.totalMs / msPerHour),
			Plays:          e.acc.playCount,
			MinutesByMonth: roundMonths(e.acc.minutesByMonth),
		})
	}

	type trackEntry struct {
		key trackKey
		acc *accumulator
	}
	trackEntries := make([]trackEntry, 0, len(trackOrder))
	for _, k := range trackOrder {
		trackEntries = append(trackEntries, trackEntry{key: k, acc: tracks[k]})
	}
	// Time first, play count on exact ties, first-seen order after that, so
	// the displayed order matches the displayed minutes column.
	sort.SliceStable(trackEntries, func(i, j int) bool {
		a, b := trackEntries[i].acc, trackEntries[j].acc
		if a.totalMs != b.totalMs {
			return a.totalMs > b.totalMs
		}
		return a.playCount > b.playCount
	})
	topTracks := make([]types.TrackRank, 0, len(trackEntries))
	for _, e := range trackEntries {
		topTracks = append(topTracks, types.TrackRank{
			Name:           e.key.name,
			Artist:         trackDisplay[e.key],
			Album:          e.key.album,
			Hours:          normalize.Round1(e.acc.totalMs / msPerHour),
			Plays:          e.acc.playCount,
			MinutesByMonth: roundMonths(e.acc.minutesByMonth),
		})
	}

	s := types.MusicSummary{
		TotalHours:    normalize.Round1(totalMs / msPerHour),
		TotalRecords:  totalRecords,
		UniqueArtists: len(artists),
		UniqueTracks:  len(tracks),
		TopArtists:    topArtists,
		TopTracks:     topTracks,
	}
	if !firstSeen.IsZero() {
		s.StartDate = firstSeen.Format("2006-01-02")
		s.EndDate = lastSeen.Format("2006-01-02")
	}
	return s
}

func roundMonths(m map[string]float64) map[string]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = normalize.Round1(v)
	}
	return out
}
