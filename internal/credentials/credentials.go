// Package credentials stores the Spotify tokens obtained at the callback so
// later requests can act on the user's behalf.
package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/pmmd05/intento-proyecto-1/internal/auth"
)

const (
	// AccessCookie holds the sealed access token.
	AccessCookie = "spotify_access_token"
	// RefreshCookie holds the sealed refresh token.
	RefreshCookie = "spotify_refresh_token"

	// DefaultAccessTTL applies when the provider omits expires_in.
	DefaultAccessTTL = time.Hour
	// RefreshTTL is how long refresh tokens are kept.
	RefreshTTL = 30 * 24 * time.Hour
)

// ErrNoCredential is returned when the request carries no usable credential.
var ErrNoCredential = errors.New("no stored Spotify credential")

// Credential is a stored delegated token.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Store persists credentials between requests.
type Store interface {
	// Get returns the credential carrying a live access token, or ErrNoCredential.
	Get(r *http.Request) (*Credential, error)
	// RefreshToken returns the stored refresh token, or ErrNoCredential.
	RefreshToken(r *http.Request) (string, error)
	Save(w http.ResponseWriter, r *http.Request, t *auth.TokenSet) error
	Clear(w http.ResponseWriter, r *http.Request) error
}

// CookieOptions control the cookies a Store writes.
type CookieOptions struct {
	Secure bool
	Path   string
}

func (o CookieOptions) path() string {
	if o.Path == "" {
		return "/"
	}
	return o.Path
}

// accessTTL returns the lifetime of the access token in t.
func accessTTL(t *auth.TokenSet) time.Duration {
	if t.ExpiresIn > 0 {
		return time.Duration(t.ExpiresIn) * time.Second
	}
	return DefaultAccessTTL
}

func newCredential(t *auth.TokenSet) *Credential {
	issued := t.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	return &Credential{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		IssuedAt:     issued,
		ExpiresAt:    issued.Add(accessTTL(t)),
	}
}

// setCookie writes an http-only cookie.
func setCookie(w http.ResponseWriter, opts CookieOptions, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.path(),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// clearCookie expires a cookie.
func clearCookie(w http.ResponseWriter, opts CookieOptions, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     opts.path(),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// generateSessionID creates a cryptographically random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
