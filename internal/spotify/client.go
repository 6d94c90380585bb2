// Package spotify provides a thin wrapper around the Spotify Web API scoped to
// a single delegated access token.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Spotify Web API root.
	DefaultBaseURL = "https://api.spotify.com/v1/"

	defaultTimeout = 15 * time.Second
)

// ErrTokenExpired is returned when Spotify rejects the access token (HTTP 401).
var ErrTokenExpired = errors.New("spotify access token expired or invalid")

// Factory builds per-token Clients that share transport settings and an
// optional outbound rate limiter.
type Factory struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
	limiter   *rate.Limiter
}

// Option configures a Factory.
type Option func(*Factory)

// WithBaseURL points clients at a different API root. A trailing slash is required.
func WithBaseURL(u string) Option {
	return func(f *Factory) {
		f.baseURL = u
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Factory) {
		f.timeout = d
	}
}

// WithTransport sets the base RoundTripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Factory) {
		f.transport = rt
	}
}

// WithRateLimit paces outbound calls to rps requests per second.
// A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(f *Factory) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewFactory creates a Factory.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		baseURL:   DefaultBaseURL,
		timeout:   defaultTimeout,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ForToken returns a Client authorized with accessToken.
func (f *Factory) ForToken(accessToken string) *Client {
	httpClient := &http.Client{
		Timeout: f.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
			Base:   expiredTokenTransport{base: f.transport},
		},
	}
	return &Client{
		api:     spotify.New(httpClient, spotify.WithBaseURL(f.baseURL)),
		limiter: f.limiter,
	}
}

// Client wraps the Spotify API client with the calls moodtune needs.
type Client struct {
	api     *spotify.Client
	limiter *rate.Limiter
}

// CurrentUserID returns the current user's Spotify ID.
func (c *Client) CurrentUserID(ctx context.Context) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("getting current user: %w", classify(err))
	}
	return user.ID, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return nil
}

// expiredTokenTransport fails any 401 response with ErrTokenExpired, whatever
// its body looks like.
type expiredTokenTransport struct {
	base http.RoundTripper
}

func (t expiredTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, ErrTokenExpired
	}
	return resp, nil
}

// classify maps a 401 from Spotify onto ErrTokenExpired and leaves other errors alone.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTokenExpired) {
		return err
	}
	if StatusCode(err) == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}
	return err
}

// StatusCode extracts the HTTP status from a Spotify API error, or 0.
func StatusCode(err error) int {
	if errors.Is(err, ErrTokenExpired) {
		return http.StatusUnauthorized
	}
	var se spotify.Error
	if errors.As(err, &se) {
		return se.Status
	}
	var sep *spotify.Error
	if errors.As(err, &sep) && sep != nil {
		return sep.Status
	}
	return 0
}
