package handlers

import (
	"net/http"
	"time"

	"herd-tracker-go/internal/store"
)

// ConnectYouTube starts the OAuth dance: issues a state token bound to the
// caller and returns the Google consent URL for the client to redirect to.
func (h *Handler) ConnectYouTube(w http.ResponseWriter, r *http.Request) {
	if !h.yt.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "YouTube sync not configured on server"})
		return
	}
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	state := h.states.Issue(uid)
	writeJSON(w, http.StatusOK, map[string]string{"url": h.yt.AuthURL(state)})
}

// YouTubeCallback is Google's redirect target. On any failure it redirects
// back into the app with a reason instead of rendering an error page.
func (h *Handler) YouTubeCallback(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "youtube.callback")

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Redirect(w, r, "/?youtube=error&reason=missing", http.StatusFound)
		return
	}

	uid, ok := h.states.Redeem(state)
	if !ok {
		http.Redirect(w, r, "/?youtube=error&reason=expired", http.StatusFound)
		return
	}

	tokens, err := h.yt.Exchange(r.Context(), code)
	if err != nil {
		reqLog.WithError(err).Warn("token exchange failed")
		http.Redirect(w, r, "/?youtube=error&reason=token", http.StatusFound)
		return
	}

	err = h.store.SaveYouTubeTokens(uid, store.YouTubeTokens{
		RefreshToken: tokens.RefreshToken,
		AccessToken:  tokens.AccessToken,
		ExpiresAt:    tokens.ExpiresAt,
	})
	if err != nil {
		reqLog.WithError(err).Error("persist tokens failed")
		http.Redirect(w, r, "/?youtube=error&reason=server", http.StatusFound)
		return
	}

	http.Redirect(w, r, "/?youtube=connected&tab=Digital", http.StatusFound)
}

// SyncYouTube refreshes the access token if stale, pulls the account library
// and stores the snapshot.
func (h *Handler) SyncYouTube(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "youtube.sync")
	if !h.yt.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "YouTube sync not configured on server"})
		return
	}
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	tokens, found, err := h.store.GetYouTubeTokens(uid)
	if err != nil {
		reqLog.WithError(err).Error("load tokens failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load tokens"})
		return
	}
	if !found || tokens.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "YouTube not connected"})
		return
	}

	access := tokens.AccessToken
	if access == "" || tokens.ExpiresAt.IsZero() || expiredWithSkew(tokens) {
		fresh, err := h.yt.Refresh(r.Context(), tokens.RefreshToken)
		if err != nil {
			reqLog.WithError(err).Warn("token refresh failed")
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "YouTube token refresh failed"})
			return
		}
		access = fresh.AccessToken
		_ = h.store.SaveYouTubeTokens(uid, store.YouTubeTokens{
			RefreshToken: fresh.RefreshToken,
			AccessToken:  fresh.AccessToken,
			ExpiresAt:    fresh.ExpiresAt,
		})
	}

	library, err := h.yt.Sync(r.Context(), access)
	if err != nil {
		reqLog.WithError(err).Warn("library sync failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "YouTube channel fetch failed"})
		return
	}
	if err := h.store.SaveYouTubeLibrary(uid, library); err != nil {
		reqLog.WithError(err).Error("persist library failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not save library"})
		return
	}

	reqLog.WithField("subscriptions", library.SubscriptionCount).Info("youtube library synced")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "library": library})
}

// YouTubeLibrary serves the last synced snapshot without hitting Google.
func (h *Handler) YouTubeLibrary(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	library, fetchedAt, found, err := h.store.GetYouTubeLibrary(uid)
	if err != nil {
		h.log.WithRequest(r).WithError(err).Error("load library failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load library"})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no library synced"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"library":         library,
		"last_fetched_at": fetchedAt,
	})
}

// expiredWithSkew renews a minute early so a token can't expire mid-sync.
func expiredWithSkew(t store.YouTubeTokens) bool {
	return time.Now().After(t.ExpiresAt.Add(-time.Minute))
}
