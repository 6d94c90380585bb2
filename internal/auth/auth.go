// Package auth implements the Spotify authorization-code flow: building the
// consent URL, classifying the callback and exchanging the code for tokens.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"
)

const (
	defaultExchangeTimeout = 30 * time.Second
	defaultRevokeTimeout   = 10 * time.Second
)

var (
	// ErrMissingCredentials is returned when the client id or secret is empty.
	ErrMissingCredentials = errors.New("missing Spotify client id or secret")

	// ErrAuthorizationDenied is returned when the user declined consent.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrMissingCode is returned when the callback carried neither a code nor an error.
	ErrMissingCode = errors.New("missing authorization code")
)

// Scopes requested from Spotify.
var Scopes = []string{
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserTopRead,
}

// Config holds the application credentials registered with Spotify.
type Config struct {
	ClientID        string
	ClientSecret    string
	RedirectURI     string
	ExchangeTimeout time.Duration
	RevokeTimeout   time.Duration
}

// Authenticator builds consent URLs and exchanges authorization codes.
type Authenticator struct {
	oauth           *oauth2.Config
	httpClient      *http.Client
	exchangeTimeout time.Duration
	revokeTimeout   time.Duration
	logger          *log.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithEndpoint overrides the Spotify accounts endpoint.
func WithEndpoint(ep oauth2.Endpoint) Option {
	return func(a *Authenticator) {
		a.oauth.Endpoint = ep
	}
}

// WithHTTPClient sets the client used for token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Authenticator) {
		a.httpClient = c
	}
}

// WithLogger sets the logger used for background failures.
func WithLogger(l *log.Logger) Option {
	return func(a *Authenticator) {
		a.logger = l
	}
}

// New creates an Authenticator.
// Returns ErrMissingCredentials if the client id or secret is empty.
func New(cfg Config, opts ...Option) (*Authenticator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	endpoint := spotify.Endpoint
	endpoint.AuthStyle = oauth2.AuthStyleInHeader

	a := &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       Scopes,
			Endpoint:     endpoint,
		},
		exchangeTimeout: cfg.ExchangeTimeout,
		revokeTimeout:   cfg.RevokeTimeout,
	}
	if a.exchangeTimeout <= 0 {
		a.exchangeTimeout = defaultExchangeTimeout
	}
	if a.revokeTimeout <= 0 {
		a.revokeTimeout = defaultRevokeTimeout
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.httpClient == nil {
		a.httpClient = &http.Client{Timeout: a.exchangeTimeout}
	}
	if a.logger == nil {
		a.logger = log.Default()
	}
	return a, nil
}

// AuthURL returns the consent URL for state. The state is forwarded as given;
// the same input always yields the same URL.
func (a *Authenticator) AuthURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

// CallbackKind classifies a consent callback.
type CallbackKind int

const (
	// CallbackSuccess means an authorization code was returned.
	CallbackSuccess CallbackKind = iota
	// CallbackDenied means the provider reported an error, usually access_denied.
	CallbackDenied
	// CallbackMissingCode means neither a code nor an error was present.
	CallbackMissingCode
)

// CallbackResult is the classified consent callback.
type CallbackResult struct {
	Kind  CallbackKind
	Code  string
	Error string
	State string
}

// Err returns the sentinel matching a non-success result, or nil.
func (r CallbackResult) Err() error {
	switch r.Kind {
	case CallbackDenied:
		return ErrAuthorizationDenied
	case CallbackMissingCode:
		return ErrMissingCode
	}
	return nil
}

// HandleCallback classifies the query parameters of a consent callback.
// An error parameter wins over a code.
func HandleCallback(code, state, errParam string) CallbackResult {
	switch {
	case errParam != "":
		return CallbackResult{Kind: CallbackDenied, Error: errParam, State: state}
	case code == "":
		return CallbackResult{Kind: CallbackMissingCode, State: state}
	default:
		return CallbackResult{Kind: CallbackSuccess, Code: code, State: state}
	}
}
