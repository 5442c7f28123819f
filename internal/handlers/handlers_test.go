package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"herd-tracker-go/internal/config"
	"herd-tracker-go/internal/discogs"
	"herd-tracker-go/internal/logger"
	"herd-tracker-go/internal/setlistfm"
	"herd-tracker-go/internal/store"
	"herd-tracker-go/internal/types"
	"herd-tracker-go/internal/youtube"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{TakeoutEstimateMinutes: 8}
	return New(cfg, logger.New(), st,
		setlistfm.New("", time.Second, time.Minute),
		discogs.New("test-agent", time.Second, time.Minute),
		youtube.New("", "", ""))
}

func doJSON(t *testing.T, fn http.HandlerFunc, method, target, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	fn(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

const streamingBody = `[[
	{"ts": "2023-05-01T10:00:00Z", "ms_played": 3600000,
	 "master_metadata_track_name": "Song A",
	 "master_metadata_album_artist_name": "Artist X",
	 "master_metadata_album_album_name": "Album"},
	{"ts": "2023-06-01T10:00:00Z", "ms_played": 1800000,
	 "master_metadata_track_name": "Song B",
	 "master_metadata_album_artist_name": "Artist X",
	 "master_metadata_album_album_name": "Album"}
]]`

func TestHealth(t *testing.T) {
	h := newTestHandler(t)
	w := doJSON(t, h.Health, http.MethodGet, "/api/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[map[string]string](t, w); got["status"] != "ok" {
		t.Errorf("body = %v", got)
	}
}

func TestImportStreamingRoundTrip(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h.ImportStreaming, http.MethodPost, "/api/streaming/import", "u1", streamingBody)
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", w.Code, w.Body.String())
	}
	got := decode[types.MusicSummary](t, w)
	if got.TotalHours != 1.5 || got.TotalRecords != 2 || got.UniqueArtists != 1 {
		t.Errorf("summary = %+v", got)
	}

	w = doJSON(t, h.GetStreamingStats, http.MethodGet, "/api/streaming/stats", "u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	stored := decode[types.MusicSummary](t, w)
	if stored.TotalHours != got.TotalHours || len(stored.TopArtists) != len(got.TopArtists) {
		t.Errorf("stored = %+v, want %+v", stored, got)
	}

	// A re-import replaces the previous summary wholesale.
	w = doJSON(t, h.ImportStreaming, http.MethodPost, "/api/streaming/import", "u1", `[[]]`)
	if w.Code != http.StatusOK {
		t.Fatalf("re-import status = %d", w.Code)
	}
	w = doJSON(t, h.GetStreamingStats, http.MethodGet, "/api/streaming/stats", "u1", "")
	if s := decode[types.MusicSummary](t, w); s.TotalRecords != 0 {
		t.Errorf("superseded summary = %+v", s)
	}
}

func TestGetStreamingStatsFilterAndLimit(t *testing.T) {
	h := newTestHandler(t)
	doJSON(t, h.ImportStreaming, http.MethodPost, "/api/streaming/import", "u1", streamingBody)

	w := doJSON(t, h.GetStreamingStats, http.MethodGet, "/api/streaming/stats?q=song+a", "u1", "")
	got := decode[types.MusicSummary](t, w)
	if len(got.TopTracks) != 1 || got.TopTracks[0].Name != "Song A" {
		t.Errorf("filtered tracks = %+v", got.TopTracks)
	}
	if got.TotalRecords != 2 {
		t.Errorf("totals changed by filter: %+v", got)
	}

	w = doJSON(t, h.GetStreamingStats, http.MethodGet, "/api/streaming/stats?limit=1", "u1", "")
	got = decode[types.MusicSummary](t, w)
	if len(got.TopTracks) != 1 || len(got.TopArtists) != 1 {
		t.Errorf("limited rankings = %d tracks, %d artists", len(got.TopTracks), len(got.TopArtists))
	}
}

func TestImportStreamingRejectsBadInput(t *testing.T) {
	h := newTestHandler(t)

	if w := doJSON(t, h.ImportStreaming, http.MethodPost, "/api/streaming/import", "", streamingBody); w.Code != http.StatusUnauthorized {
		t.Errorf("no user: status = %d", w.Code)
	}
	if w := doJSON(t, h.ImportStreaming, http.MethodPost, "/api/streaming/import", "u1", `{"not": "an array"}`); w.Code != http.StatusBadRequest {
		t.Errorf("object body: status = %d", w.Code)
	}
	if w := doJSON(t, h.GetStreamingStats, http.MethodGet, "/api/streaming/stats", "u1", ""); w.Code != http.StatusNotFound {
		t.Errorf("no stats yet: status = %d", w.Code)
	}
}

func TestBearerTokenIdentity(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/streaming/import", strings.NewReader(`[[]]`))
	req.Header.Set("Authorization", "Bearer abc123")
	w := httptest.NewRecorder()
	h.ImportStreaming(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	if w := doJSON(t, h.GetStreamingStats, http.MethodGet, "/api/streaming/stats", "abc123", ""); w.Code != http.StatusOK {
		t.Errorf("bearer identity not shared with header identity: %d", w.Code)
	}
}

func TestImportTakeoutWrapperAndEstimate(t *testing.T) {
	h := newTestHandler(t)
	body := `{"watchHistory": [
		{"title": "Watched Video One", "titleUrl": "https://youtu.be/a",
		 "subtitles": [{"name": "Chan"}], "time": "2023-05-01T10:00:00Z"},
		{"title": "Watched Video Two", "titleUrl": "https://youtu.be/b",
		 "subtitles": [{"name": "Chan"}], "time": "2023-05-02T10:00:00Z"}
	]}`

	w := doJSON(t, h.ImportTakeout, http.MethodPost, "/api/youtube/takeout?estimate_minutes=5", "u1", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	got := decode[types.WatchSummary](t, w)
	if got.VideoCount != 2 || got.TotalWatchMinutes != 10 {
		t.Errorf("summary = %+v", got)
	}
	if len(got.ChannelRankings) != 1 || got.ChannelRankings[0].Channel != "Chan" {
		t.Errorf("channels = %+v", got.ChannelRankings)
	}
}

func TestImportTakeoutConfiguredEstimate(t *testing.T) {
	h := newTestHandler(t)
	body := `[{"title": "Watched Clip", "titleUrl": "https://youtu.be/c"}]`

	w := doJSON(t, h.ImportTakeout, http.MethodPost, "/api/youtube/takeout", "u1", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[types.WatchSummary](t, w); got.TotalWatchMinutes != 8 {
		t.Errorf("minutes = %v, want the configured 8", got.TotalWatchMinutes)
	}
}

func TestExportStats(t *testing.T) {
	h := newTestHandler(t)

	if w := doJSON(t, h.ExportStats, http.MethodGet, "/api/stats/export", "u1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("empty export: status = %d", w.Code)
	}

	doJSON(t, h.ImportStreaming, http.MethodPost, "/api/streaming/import", "u1", streamingBody)
	w := doJSON(t, h.ExportStats, http.MethodGet, "/api/stats/export", "u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("empty workbook body")
	}
}

func TestProfileAndCuration(t *testing.T) {
	h := newTestHandler(t)

	if w := doJSON(t, h.Profile, http.MethodGet, "/api/profile", "u1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing profile: status = %d", w.Code)
	}
	if w := doJSON(t, h.Profile, http.MethodPut, "/api/profile", "u1", `{"display_name": "Jo"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("profile without username: status = %d", w.Code)
	}
	if w := doJSON(t, h.Profile, http.MethodPut, "/api/profile", "u1", `{"username": "jo", "display_name": "Jo"}`); w.Code != http.StatusOK {
		t.Fatalf("save profile: status = %d", w.Code)
	}

	w := doJSON(t, h.Concerts, http.MethodPost, "/api/concerts", "u1", `{"artist": "Wilco", "venue": "Fillmore"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add concert: status = %d", w.Code)
	}
	concert := decode[types.Concert](t, w)
	if concert.ID == 0 {
		t.Fatal("concert id not assigned")
	}

	// Nothing is public yet.
	w = doJSON(t, h.PublicProfile, http.MethodGet, "/api/profile/public?username=jo", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("public profile: status = %d", w.Code)
	}
	if view := decode[types.PublicProfile](t, w); len(view.Concerts) != 0 {
		t.Errorf("concerts public before curation: %+v", view.Concerts)
	}

	curate := `{"type": "concert", "id": ` + strconv.FormatInt(concert.ID, 10) + `, "public": true}`
	if w := doJSON(t, h.Curate, http.MethodPost, "/api/curate", "u1", curate); w.Code != http.StatusOK {
		t.Fatalf("curate: status = %d", w.Code)
	}
	w = doJSON(t, h.PublicProfile, http.MethodGet, "/api/profile/public?username=jo", "", "")
	view := decode[types.PublicProfile](t, w)
	if len(view.Concerts) != 1 || view.Concerts[0].Artist != "Wilco" {
		t.Errorf("curated view = %+v", view.Concerts)
	}

	if w := doJSON(t, h.PublicProfile, http.MethodGet, "/api/profile/public?username=nobody", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown username: status = %d", w.Code)
	}
}

func TestCollectionValidation(t *testing.T) {
	h := newTestHandler(t)

	if w := doJSON(t, h.Concerts, http.MethodPost, "/api/concerts", "u1", `{"venue": "no artist"}`); w.Code != http.StatusBadRequest {
		t.Errorf("concert without artist: status = %d", w.Code)
	}
	if w := doJSON(t, h.Vinyl, http.MethodPost, "/api/vinyl", "u1", `{"artist_name": "X"}`); w.Code != http.StatusBadRequest {
		t.Errorf("vinyl without album: status = %d", w.Code)
	}
	if w := doJSON(t, h.Concerts, http.MethodDelete, "/api/concerts?id=zero", "u1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id param: status = %d", w.Code)
	}
	if w := doJSON(t, h.Curate, http.MethodPost, "/api/curate", "u1", `{"type": "sticker", "id": 1}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown curate type: status = %d", w.Code)
	}
}

func TestYouTubeEndpointsUnconfigured(t *testing.T) {
	h := newTestHandler(t)

	if w := doJSON(t, h.ConnectYouTube, http.MethodGet, "/api/auth/youtube", "u1", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("connect: status = %d", w.Code)
	}
	if w := doJSON(t, h.SyncYouTube, http.MethodPost, "/api/youtube/sync", "u1", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("sync: status = %d", w.Code)
	}
}

func TestYouTubeLibraryNotSynced(t *testing.T) {
	h := newTestHandler(t)
	if w := doJSON(t, h.YouTubeLibrary, http.MethodGet, "/api/youtube/library", "u1", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

func TestYouTubeCallbackRedirects(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h.YouTubeCallback, http.MethodGet, "/api/auth/youtube/callback", "", "")
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "reason=missing") {
		t.Errorf("location = %q", loc)
	}

	w = doJSON(t, h.YouTubeCallback, http.MethodGet, "/api/auth/youtube/callback?code=x&state=bogus", "", "")
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "reason=expired") {
		t.Errorf("location = %q", loc)
	}
}
