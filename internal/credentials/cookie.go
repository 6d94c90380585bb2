package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/pmmd05/intento-proyecto-1/internal/auth"
)

const nonceSize = 24

var errTampered = errors.New("cookie failed authentication")

// CookieStore keeps credentials in two sealed, http-only cookies.
type CookieStore struct {
	key  [32]byte
	opts CookieOptions
}

// NewCookieStore creates a CookieStore sealing values under a key derived from secret.
func NewCookieStore(secret string, opts CookieOptions) (*CookieStore, error) {
	if secret == "" {
		return nil, errors.New("cookie secret is empty")
	}
	return &CookieStore{key: sha256.Sum256([]byte(secret)), opts: opts}, nil
}

// Get returns the credential from the access cookie.
// Missing, expired or tampered cookies all yield ErrNoCredential.
func (s *CookieStore) Get(r *http.Request) (*Credential, error) {
	issued, expires, access, err := s.read(r, AccessCookie)
	if err != nil {
		return nil, ErrNoCredential
	}
	if !expires.IsZero() && time.Now().After(expires) {
		return nil, ErrNoCredential
	}

	cred := &Credential{AccessToken: access, IssuedAt: issued, ExpiresAt: expires}
	if _, _, refresh, err := s.read(r, RefreshCookie); err == nil {
		cred.RefreshToken = refresh
	}
	return cred, nil
}

// RefreshToken returns the token from the refresh cookie.
func (s *CookieStore) RefreshToken(r *http.Request) (string, error) {
	_, _, refresh, err := s.read(r, RefreshCookie)
	if err != nil {
		return "", ErrNoCredential
	}
	return refresh, nil
}

// Save writes the access cookie for the token's lifetime and the refresh
// cookie for RefreshTTL.
func (s *CookieStore) Save(w http.ResponseWriter, _ *http.Request, t *auth.TokenSet) error {
	cred := newCredential(t)
	ttl := accessTTL(t)

	access, err := s.seal(AccessCookie, cred.IssuedAt, cred.ExpiresAt, cred.AccessToken)
	if err != nil {
		return fmt.Errorf("sealing access token: %w", err)
	}
	setCookie(w, s.opts, AccessCookie, access, ttl)

	if cred.RefreshToken != "" {
		refresh, err := s.seal(RefreshCookie, cred.IssuedAt, cred.IssuedAt.Add(RefreshTTL), cred.RefreshToken)
		if err != nil {
			return fmt.Errorf("sealing refresh token: %w", err)
		}
		setCookie(w, s.opts, RefreshCookie, refresh, RefreshTTL)
	}
	return nil
}

// Clear expires both cookies.
func (s *CookieStore) Clear(w http.ResponseWriter, _ *http.Request) error {
	clearCookie(w, s.opts, AccessCookie)
	clearCookie(w, s.opts, RefreshCookie)
	return nil
}

// seal encrypts name|issued|expires|value so a cookie cannot be replayed
// under a different name.
func (s *CookieStore) seal(name string, issued, expires time.Time, value string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}
	plain := strings.Join([]string{
		name,
		strconv.FormatInt(issued.Unix(), 10),
		strconv.FormatInt(expires.Unix(), 10),
		value,
	}, "|")
	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

func (s *CookieStore) read(r *http.Request, name string) (issued, expires time.Time, value string, err error) {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return time.Time{}, time.Time{}, "", ErrNoCredential
	}
	return s.open(name, c.Value)
}

func (s *CookieStore) open(name, sealed string) (issued, expires time.Time, value string, err error) {
	box, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return time.Time{}, time.Time{}, "", errTampered
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return time.Time{}, time.Time{}, "", errTampered
	}

	parts := strings.SplitN(string(plain), "|", 4)
	if len(parts) != 4 || parts[0] != name || parts[3] == "" {
		return time.Time{}, time.Time{}, "", errTampered
	}
	iss, err1 := strconv.ParseInt(parts[1], 10, 64)
	exp, err2 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil {
		return time.Time{}, time.Time{}, "", errTampered
	}
	return time.Unix(iss, 0), time.Unix(exp, 0), parts[3], nil
}

var _ Store = (*CookieStore)(nil)
