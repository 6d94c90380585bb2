package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/pmmd05/intento-proyecto-1/internal/appauth"
	"github.com/pmmd05/intento-proyecto-1/internal/catalog"
	"github.com/pmmd05/intento-proyecto-1/internal/db"
	"github.com/pmmd05/intento-proyecto-1/internal/playlist"
	"github.com/pmmd05/intento-proyecto-1/internal/recommend"
)

const (
	maxJSONBody       = 1 << 20
	maxPlaylistLimit  = 100
	unauthorizedError = "unauthorized"
)

// Recommender produces emotion-based recommendations.
type Recommender interface {
	Recommend(ctx context.Context, accessToken, emotion string) (*catalog.Result, error)
	Mockup(emotion string) (*catalog.Result, error)
}

// PlaylistService publishes and lists playlists.
type PlaylistService interface {
	CreateAndSave(ctx context.Context, userID, accessToken string, req playlist.Request) (*db.Playlist, error)
	List(ctx context.Context, userID string, limit int) ([]db.Playlist, error)
}

var (
	_ Recommender     = (*recommend.Aggregator)(nil)
	_ PlaylistService = (*playlist.Service)(nil)
)

// Recommend returns tracks for an emotion (GET /recommend?emotion=).
// A bearer Spotify token takes precedence over the stored credential.
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	token, ok := appauth.BearerToken(r)
	if !ok {
		cred, err := h.creds.Get(r)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		token = cred.AccessToken
	}

	res, err := h.recommender.Recommend(r.Context(), token, r.URL.Query().Get("emotion"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Mockup returns bundled sample tracks (GET /recommend/mockup?emotion=).
func (h *Handlers) Mockup(w http.ResponseWriter, r *http.Request) {
	res, err := h.recommender.Mockup(r.URL.Query().Get("emotion"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CreatePlaylist publishes recommended tracks to the user's Spotify account
// (POST /recommend/playlist).
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	userID, ok := appauth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedError, "missing session")
		return
	}

	cred, err := h.creds.Get(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var req playlist.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	rec, err := h.playlists.CreateAndSave(r.Context(), userID, cred.AccessToken, req)
	if err != nil {
		var pe *playlist.PublishError
		if errors.As(err, &pe) && pe.PartialID != "" {
			h.logger.Warn("playlist left partially filled", "playlist", pe.PartialID, "user", userID)
		}
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListPlaylists returns the user's saved playlists (GET /v1/playlists?limit=).
func (h *Handlers) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	userID, ok := appauth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedError, "missing session")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxPlaylistLimit)
	}

	playlists, err := h.playlists.List(r.Context(), userID, limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if playlists == nil {
		playlists = []db.Playlist{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}
