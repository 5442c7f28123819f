package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"herd-tracker-go/internal/types"
)

// Profile handles GET (own profile) and PUT (upsert).
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, found, err := h.store.GetProfile(uid)
		if err != nil {
			h.log.WithRequest(r).WithError(err).Error("load profile failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load profile"})
			return
		}
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		writeJSON(w, http.StatusOK, p)

	case http.MethodPut:
		var p types.Profile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		p.UserID = uid
		if strings.TrimSpace(p.Username) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
			return
		}
		if err := h.store.UpsertProfile(p); err != nil {
			h.log.WithRequest(r).WithError(err).Error("save profile failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not save profile"})
			return
		}
		writeJSON(w, http.StatusOK, p)

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "GET or PUT only"})
	}
}

// PublicProfile serves the curated view for ?username=.
func (h *Handler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing username query param"})
		return
	}
	view, found, err := h.store.PublicProfile(username)
	if err != nil {
		h.log.WithRequest(r).WithError(err).Error("public profile failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load profile"})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Concerts handles POST (add), GET (list) and DELETE (?id=) for the caller's
// concert log. Vinyl and Merch mirror it.
func (h *Handler) Concerts(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var c types.Concert
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil || strings.TrimSpace(c.Artist) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "artist is required"})
			return
		}
		id, err := h.store.AddConcert(uid, c)
		if err != nil {
			h.log.WithRequest(r).WithError(err).Error("add concert failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not save concert"})
			return
		}
		c.ID = id
		writeJSON(w, http.StatusCreated, c)

	case http.MethodGet:
		list, err := h.store.ListConcerts(uid, false)
		if err != nil {
			h.log.WithRequest(r).WithError(err).Error("list concerts failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not list concerts"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"concerts": list})

	case http.MethodDelete:
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := h.store.DeleteConcert(uid, id); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not delete concert"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "GET, POST or DELETE only"})
	}
}

func (h *Handler) Vinyl(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var v types.Vinyl
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil ||
			strings.TrimSpace(v.ArtistName) == "" || strings.TrimSpace(v.AlbumName) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "artist_name and album_name are required"})
			return
		}
		id, err := h.store.AddVinyl(uid, v)
		if err != nil {
			h.log.WithRequest(r).WithError(err).Error("add vinyl failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not save vinyl"})
			return
		}
		v.ID = id
		writeJSON(w, http.StatusCreated, v)

	case http.MethodGet:
		list, err := h.store.ListVinyl(uid, false)
		if err != nil {
			h.log.WithRequest(r).WithError(err).Error("list vinyl failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not list vinyl"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"vinyl": list})

	case http.MethodDelete:
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := h.store.DeleteVinyl(uid, id); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not delete vinyl"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "GET, POST or DELETE only"})
	}
}

func (h *Handler) Merch(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var m types.Merch
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil || strings.TrimSpace(m.Name) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
			return
		}
		id, err := h.store.AddMerch(uid, m)
		if err != nil {
			h.log.WithRequest(r).WithError(err).Error("add merch failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not save merch"})
			return
		}
		m.ID = id
		writeJSON(w, http.StatusCreated, m)

	case http.MethodGet:
		list, err := h.store.ListMerch(uid, false)
		if err != nil {
			h.log.WithRequest(r).WithError(err).Error("list merch failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not list merch"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"merch": list})

	case http.MethodDelete:
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := h.store.DeleteMerch(uid, id); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not delete merch"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "GET, POST or DELETE only"})
	}
}

// Curate flips the is_public flag: POST {"type": "concert", "id": 1, "public": true}.
func (h *Handler) Curate(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST only"})
		return
	}

	var req struct {
		Type   string `json:"type"`
		ID     int64  `json:"id"`
		Public bool   `json:"public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	var err error
	switch req.Type {
	case "concert":
		err = h.store.SetConcertPublic(uid, req.ID, req.Public)
	case "vinyl":
		err = h.store.SetVinylPublic(uid, req.ID, req.Public)
	case "merch":
		err = h.store.SetMerchPublic(uid, req.ID, req.Public)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be concert, vinyl or merch"})
		return
	}
	if err != nil {
		h.log.WithRequest(r).WithError(err).Error("curate failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not update item"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing or invalid id"})
		return 0, false
	}
	return id, true
}
