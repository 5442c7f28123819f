// Package handlers is the HTTP edge: request parsing, identity extraction
// and response shaping around the pure aggregation core and its
// collaborators. Aggregation itself never lives here.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"herd-tracker-go/internal/config"
	"herd-tracker-go/internal/discogs"
	"herd-tracker-go/internal/logger"
	"herd-tracker-go/internal/normalize"
	"herd-tracker-go/internal/ranking"
	"herd-tracker-go/internal/report"
	"herd-tracker-go/internal/setlistfm"
	"herd-tracker-go/internal/store"
	"herd-tracker-go/internal/streaming"
	"herd-tracker-go/internal/types"
	"herd-tracker-go/internal/watchhist"
	"herd-tracker-go/internal/youtube"
)

type Handler struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *store.Store
	setlist *setlistfm.Client
	discogs *discogs.Client
	yt      *youtube.Service
	states  *youtube.StateStore
}

func New(cfg *config.Config, log *logger.Logger, st *store.Store,
	sl *setlistfm.Client, dg *discogs.Client, yt *youtube.Service) *Handler {
	return &Handler{
		cfg:     cfg,
		log:     log,
		store:   st,
		setlist: sl,
		discogs: dg,
		yt:      yt,
		states:  youtube.NewStateStore(),
	}
}

// userID pulls the caller's opaque user key from the Authorization bearer or
// the X-User-ID header. Token verification happens upstream of this service.
func userID(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if tok := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer")); tok != "" {
			return tok
		}
	}
	return r.Header.Get("X-User-ID")
}

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user identity"})
		return "", false
	}
	return uid, true
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- search proxies ---

func (h *Handler) SearchConcerts(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "concerts.search")

	artist := strings.TrimSpace(r.URL.Query().Get("artist"))
	if artist == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing artist query param"})
		return
	}

	concerts, total, err := h.setlist.Search(r.Context(), artist)
	if err != nil {
		reqLog.WithError(err).Warn("setlist.fm search failed")
		switch {
		case errors.Is(err, setlistfm.ErrRateLimited):
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too many requests. Please wait a minute and try again."})
		case errors.Is(err, setlistfm.ErrForbidden):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Search failed"})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"concerts": concerts, "total": total})
}

func (h *Handler) SearchVinyl(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "vinyl.search")

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing q query param"})
		return
	}

	results, total, err := h.discogs.Search(r.Context(), q)
	if err != nil {
		reqLog.WithError(err).Warn("discogs search failed")
		if errors.Is(err, discogs.ErrRateLimited) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too many requests. Please wait a minute and try again."})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Search failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "total": total})
}

// --- history imports ---

// ImportStreaming accepts a batch of parsed export files (a JSON array whose
// elements are the contents of each uploaded file), aggregates them and
// persists the summary. Unrecognizable files degrade to zero records; the
// client decides whether an all-zero result warrants a warning.
func (h *Handler) ImportStreaming(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "streaming.import")
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var files []any
	if err := json.NewDecoder(r.Body).Decode(&files); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be a JSON array of file contents"})
		return
	}

	summary := streaming.Aggregator{}.Aggregate(files)
	if err := h.store.SaveStreamingStats(uid, summary); err != nil {
		reqLog.WithError(err).Error("persist streaming stats failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not save stats"})
		return
	}

	reqLog.WithFields(logrus.Fields{
		"files":         len(files),
		"total_records": summary.TotalRecords,
		"total_hours":   summary.TotalHours,
	}).Info("streaming history imported")
	writeJSON(w, http.StatusOK, summary)
}

// GetStreamingStats serves the stored summary. Optional q= filters the
// rankings by free text and limit= caps their length; totals are untouched.
func (h *Handler) GetStreamingStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	summary, found, err := h.store.GetStreamingStats(uid)
	if err != nil {
		h.log.WithRequest(r).WithError(err).Error("load streaming stats failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load stats"})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no streaming stats imported"})
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		summary.TopArtists = ranking.Filter(summary.TopArtists, q,
			func(a types.ArtistRank) string { return a.Name })
		summary.TopTracks = ranking.Filter(summary.TopTracks, q,
			func(t types.TrackRank) string { return t.Name + " " + t.Artist + " " + t.Album })
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			summary.TopArtists = ranking.TopN(summary.TopArtists, n)
			summary.TopTracks = ranking.TopN(summary.TopTracks, n)
		}
	}
	writeJSON(w, http.StatusOK, summary)
}

// ImportTakeout accepts a Takeout watch-history payload: a bare array or an
// object wrapping one under watchHistory / watch_history / records. An
// estimate_minutes query param overrides the configured per-video estimate.
func (h *Handler) ImportTakeout(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "takeout.import")
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var body any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	records := normalize.Records(unwrapTakeout(body))

	estimate := h.cfg.TakeoutEstimateMinutes
	if v := r.URL.Query().Get("estimate_minutes"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			estimate = f
		}
	}

	summary := watchhist.Aggregator{EstimateMinutes: estimate}.Aggregate(records)
	if err := h.store.SaveTakeoutStats(uid, summary); err != nil {
		reqLog.WithError(err).Error("persist takeout stats failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not save stats"})
		return
	}

	reqLog.WithFields(logrus.Fields{
		"video_count":   summary.VideoCount,
		"watch_minutes": summary.TotalWatchMinutes,
	}).Info("takeout history imported")
	writeJSON(w, http.StatusOK, summary)
}

// unwrapTakeout peels the known wrapper keys off a Takeout upload body.
func unwrapTakeout(body any) any {
	obj, ok := body.(map[string]any)
	if !ok {
		return body
	}
	for _, key := range []string{"watchHistory", "watch_history", "records"} {
		if v, ok := obj[key]; ok {
			return v
		}
	}
	return body
}

// --- report export ---

func (h *Handler) ExportStats(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "stats.export")
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var musicPtr *types.MusicSummary
	if music, found, err := h.store.GetStreamingStats(uid); err == nil && found {
		musicPtr = &music
	}
	var watchPtr *types.WatchSummary
	if watch, found, err := h.store.GetTakeoutStats(uid); err == nil && found {
		watchPtr = &watch
	}
	if musicPtr == nil && watchPtr == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no stats to export"})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="herd-stats.xlsx"`)
	if err := report.Write(w, musicPtr, watchPtr); err != nil {
		reqLog.WithError(err).Error("workbook export failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
