package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/pmmd05/intento-proyecto-1/internal/auth"
	"github.com/pmmd05/intento-proyecto-1/internal/credentials"
)

// providerSpotify is the only supported music provider.
const providerSpotify = "spotify"

// Authorizer runs the Spotify authorization code flow.
type Authorizer interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.TokenSet, error)
	Revoke(refreshToken string)
}

var _ Authorizer = (*auth.Authenticator)(nil)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth        Authorizer
	creds       credentials.Store
	recommender Recommender
	playlists   PlaylistService
	analyses    Analyzer
	frontendURL string
	logger      *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps, frontendURL string, logger *log.Logger) *Handlers {
	return &Handlers{
		auth:        deps.Auth,
		creds:       deps.Credentials,
		recommender: deps.Recommender,
		playlists:   deps.Playlists,
		analyses:    deps.Analyses,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// Health reports liveness (GET /health).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound renders unknown routes as JSON.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", "route not found")
}

// MethodNotAllowed renders wrong-method requests as JSON.
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}

// requireProvider rejects providers other than Spotify.
func (h *Handlers) requireProvider(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "provider") != providerSpotify {
			writeError(w, http.StatusNotFound, "unknown_provider", "unsupported provider")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Connect redirects to the Spotify consent page (GET /v1/auth/{provider}).
// The state is passed through unchanged.
func (h *Handlers) Connect(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusFound)
}

// Callback completes the consent flow (GET /v1/auth/{provider}/callback).
// Every outcome redirects back to the frontend.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cb := auth.HandleCallback(q.Get("code"), q.Get("state"), q.Get("error"))

	switch cb.Kind {
	case auth.CallbackDenied:
		h.logger.Info("spotify authorization denied", "error", cb.Error)
		h.redirectToFrontend(w, r, cb.Error, cb.State)
		return
	case auth.CallbackMissingCode:
		h.redirectToFrontend(w, r, "missing_code", cb.State)
		return
	}

	tokens, err := h.auth.Exchange(r.Context(), cb.Code)
	if err != nil {
		var exErr *auth.ExchangeError
		if errors.As(err, &exErr) {
			h.logger.Error("token exchange failed", "status", exErr.Status, "body", exErr.Body, "err", exErr.Err)
		} else {
			h.logger.Error("token exchange failed", "err", err)
		}
		h.redirectToFrontend(w, r, "token_exchange_failed", cb.State)
		return
	}

	if err := h.creds.Save(w, r, tokens); err != nil {
		h.logger.Error("storing credential failed", "err", err)
		h.redirectToFrontend(w, r, "credential_store_failed", cb.State)
		return
	}

	h.redirectToFrontend(w, r, "", cb.State)
}

// Status reports whether a live access token is stored (GET /v1/auth/{provider}/status).
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	_, err := h.creds.Get(r)
	if err != nil && !errors.Is(err, credentials.ErrNoCredential) {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"connected": err == nil})
}

// Disconnect forgets the stored credential (POST /v1/auth/{provider}/disconnect).
func (h *Handlers) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.creds.Clear(w, r); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"disconnected": true})
}

// Revoke invalidates the refresh token in the background and forgets the
// stored credential (POST /v1/auth/{provider}/revoke).
func (h *Handlers) Revoke(w http.ResponseWriter, r *http.Request) {
	refresh, err := h.creds.RefreshToken(r)
	switch {
	case err == nil:
		h.auth.Revoke(refresh)
	case !errors.Is(err, credentials.ErrNoCredential):
		h.logger.Warn("reading refresh token failed", "err", err)
	}

	if err := h.creds.Clear(w, r); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"revoked": true,
		"note":    "Spotify does not expose token revocation; remove the app from your Spotify account settings to fully revoke access",
	})
}

// redirectToFrontend sends the browser to <frontend>/connect with the outcome.
func (h *Handlers) redirectToFrontend(w http.ResponseWriter, r *http.Request, errCode, state string) {
	q := url.Values{}
	if errCode != "" {
		q.Set("error", errCode)
	}
	if state != "" {
		q.Set("state", state)
	}

	target := h.frontendURL + "/connect"
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	http.Redirect(w, r, target, http.StatusFound)
}
