package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pmmd05/intento-proyecto-1/internal/auth"
)

const (
	sessionCookie = "moodtune_sid"
	keyPrefix     = "moodtune:cred:"
	redisTimeout  = 3 * time.Second
)

// RedisClient is the subset of *redis.Client the store uses.
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps credentials in Redis behind an opaque session cookie.
type RedisStore struct {
	rdb  RedisClient
	opts CookieOptions
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(rdb RedisClient, opts CookieOptions) *RedisStore {
	return &RedisStore{rdb: rdb, opts: opts}
}

// NewRedisClient parses redisURL and returns a connected client.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	return redis.NewClient(opt), nil
}

func accessKey(sid string) string  { return keyPrefix + sid + ":access" }
func refreshKey(sid string) string { return keyPrefix + sid + ":refresh" }

// Get loads the credential for the request's session.
func (s *RedisStore) Get(r *http.Request) (*Credential, error) {
	sid, ok := sessionID(r)
	if !ok {
		return nil, ErrNoCredential
	}
	ctx, cancel := context.WithTimeout(r.Context(), redisTimeout)
	defer cancel()

	raw, err := s.rdb.Get(ctx, accessKey(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("reading credential: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("decoding credential: %w", err)
	}
	if refresh, err := s.rdb.Get(ctx, refreshKey(sid)).Result(); err == nil {
		cred.RefreshToken = refresh
	}
	return &cred, nil
}

// RefreshToken loads the refresh token for the request's session.
func (s *RedisStore) RefreshToken(r *http.Request) (string, error) {
	sid, ok := sessionID(r)
	if !ok {
		return "", ErrNoCredential
	}
	ctx, cancel := context.WithTimeout(r.Context(), redisTimeout)
	defer cancel()

	refresh, err := s.rdb.Get(ctx, refreshKey(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("reading refresh token: %w", err)
	}
	return refresh, nil
}

// Save stores t under a fresh session id. Any credential held by the
// request's previous session is deleted first.
func (s *RedisStore) Save(w http.ResponseWriter, r *http.Request, t *auth.TokenSet) error {
	sid, err := generateSessionID()
	if err != nil {
		return fmt.Errorf("generating session id: %w", err)
	}
	ctx, cancel := context.WithTimeout(r.Context(), redisTimeout)
	defer cancel()

	if old, ok := sessionID(r); ok {
		if err := s.rdb.Del(ctx, accessKey(old), refreshKey(old)).Err(); err != nil {
			return fmt.Errorf("deleting previous credential: %w", err)
		}
	}

	cred := newCredential(t)
	access := *cred
	access.RefreshToken = ""
	raw, err := json.Marshal(access)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}

	if err := s.rdb.Set(ctx, accessKey(sid), raw, accessTTL(t)).Err(); err != nil {
		return fmt.Errorf("storing access token: %w", err)
	}
	if cred.RefreshToken != "" {
		if err := s.rdb.Set(ctx, refreshKey(sid), cred.RefreshToken, RefreshTTL).Err(); err != nil {
			return fmt.Errorf("storing refresh token: %w", err)
		}
	}

	setCookie(w, s.opts, sessionCookie, sid, RefreshTTL)
	return nil
}

// Clear removes the session's credential and cookie.
func (s *RedisStore) Clear(w http.ResponseWriter, r *http.Request) error {
	defer clearCookie(w, s.opts, sessionCookie)

	sid, ok := sessionID(r)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(r.Context(), redisTimeout)
	defer cancel()

	if err := s.rdb.Del(ctx, accessKey(sid), refreshKey(sid)).Err(); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

func sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

var _ Store = (*RedisStore)(nil)
