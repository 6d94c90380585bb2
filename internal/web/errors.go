package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pmmd05/intento-proyecto-1/internal/auth"
	"github.com/pmmd05/intento-proyecto-1/internal/catalog"
	"github.com/pmmd05/intento-proyecto-1/internal/credentials"
	"github.com/pmmd05/intento-proyecto-1/internal/db"
	"github.com/pmmd05/intento-proyecto-1/internal/emotion"
	"github.com/pmmd05/intento-proyecto-1/internal/playlist"
	"github.com/pmmd05/intento-proyecto-1/internal/spotify"
	"github.com/pmmd05/intento-proyecto-1/internal/vision"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// apiError is the HTTP rendering of an error.
type apiError struct {
	Status  int
	Code    string
	Message string
}

// classifyError maps domain errors to responses. Upstream response bodies
// never reach the message.
func classifyError(err error) apiError {
	var (
		publishErr  *playlist.PublishError
		exchangeErr *auth.ExchangeError
	)

	switch {
	case errors.Is(err, emotion.ErrUnknownEmotion):
		return apiError{http.StatusBadRequest, "invalid_emotion", "emotion must be one of: happy, sad, angry, relaxed, energetic"}
	case errors.Is(err, playlist.ErrNoTracks):
		return apiError{http.StatusBadRequest, "no_tracks", "track_uris must not be empty"}
	case errors.Is(err, playlist.ErrInvalidAnalysisID):
		return apiError{http.StatusBadRequest, "invalid_analysis_id", "analysis_id is not a valid id"}
	case errors.Is(err, vision.ErrInvalidImage):
		return apiError{http.StatusBadRequest, "invalid_image", "file is not a supported image"}
	case errors.Is(err, credentials.ErrNoCredential):
		return apiError{http.StatusUnauthorized, "credential_missing", "Spotify account is not connected"}
	case errors.As(err, &publishErr):
		if publishErr.Kind == playlist.KindTokenExpired {
			return apiError{http.StatusUnauthorized, "token_expired", "Spotify token expired, reconnect your account"}
		}
		return apiError{http.StatusInternalServerError, "playlist_creation_failed", "Spotify rejected the playlist"}
	case errors.Is(err, spotify.ErrTokenExpired):
		return apiError{http.StatusUnauthorized, "token_expired", "Spotify token expired, reconnect your account"}
	case errors.Is(err, catalog.ErrFallbackExhausted):
		return apiError{http.StatusInternalServerError, "no_tracks_found", "no tracks found for this emotion"}
	case errors.Is(err, auth.ErrAuthorizationDenied):
		return apiError{http.StatusUnauthorized, "authorization_denied", "authorization was denied"}
	case errors.As(err, &exchangeErr):
		return apiError{http.StatusInternalServerError, "token_exchange_failed", "could not exchange authorization code"}
	case errors.Is(err, db.ErrNotFound):
		return apiError{http.StatusNotFound, "not_found", "resource not found"}
	case errors.Is(err, context.DeadlineExceeded):
		return apiError{http.StatusGatewayTimeout, "timeout", "upstream request timed out"}
	default:
		return apiError{http.StatusInternalServerError, "internal_error", "internal server error"}
	}
}

// handleError logs err and writes its response.
func (h *Handlers) handleError(w http.ResponseWriter, r *http.Request, err error) {
	e := classifyError(err)
	if e.Status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", e.Status, "err", err)
	} else {
		h.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", e.Status, "err", err)
	}
	writeError(w, e.Status, e.Code, e.Message)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}
