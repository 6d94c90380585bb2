// Package config loads moodtune configuration from TOML, .env files and the environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

var (
	// ErrMissingCredentials is returned when the Spotify client id or secret is not set.
	ErrMissingCredentials = errors.New("missing Spotify client id or secret")

	// ErrInvalidConfig is returned when a setting has an unusable value.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Spotify  SpotifyConfig  `toml:"spotify"`
	Session  SessionConfig  `toml:"session"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	FrontendURL    string   `toml:"frontend_url"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// SpotifyConfig contains Spotify application credentials and client tuning.
type SpotifyConfig struct {
	ClientID        string   `toml:"client_id"`
	ClientSecret    string   `toml:"client_secret"`
	RedirectURI     string   `toml:"redirect_uri"`
	APIBaseURL      string   `toml:"api_base_url"`
	RequestTimeout  Duration `toml:"request_timeout"`
	ExchangeTimeout Duration `toml:"exchange_timeout"`
	RevokeTimeout   Duration `toml:"revoke_timeout"`
	RateLimit       float64  `toml:"rate_limit"`
	RateBurst       int      `toml:"rate_burst"`
}

// SessionConfig controls application sessions and credential storage.
type SessionConfig struct {
	JWTSecret         string `toml:"jwt_secret"`
	CookieSecret      string `toml:"cookie_secret"`
	CookieSecure      bool   `toml:"cookie_secure"`
	CredentialBackend string `toml:"credential_backend"`
	RedisURL          string `toml:"redis_url"`
}

// DatabaseConfig contains the persistence URL.
type DatabaseConfig struct {
	URL string `toml:"url"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration wraps time.Duration so it can be written as "15s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a Config populated from the embedded example file.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("parsing embedded default config: %v", err))
	}
	return &cfg
}

// Load builds the configuration in layers: embedded defaults, the TOML file at
// path (skipped when path is empty or missing), a .env file in the working
// directory, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from the environment.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"ADDR":                  &c.Server.Addr,
		"FRONTEND_URL":          &c.Server.FrontendURL,
		"SPOTIFY_CLIENT_ID":     &c.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET": &c.Spotify.ClientSecret,
		"SPOTIFY_REDIRECT_URI":  &c.Spotify.RedirectURI,
		"SPOTIFY_API_BASE_URL":  &c.Spotify.APIBaseURL,
		"JWT_SECRET":            &c.Session.JWTSecret,
		"COOKIE_SECRET":         &c.Session.CookieSecret,
		"CREDENTIAL_BACKEND":    &c.Session.CredentialBackend,
		"REDIS_URL":             &c.Session.RedisURL,
		"DATABASE_URL":          &c.Database.URL,
		"LOG_LEVEL":             &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		c.Session.CookieSecure = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("SPOTIFY_REQUEST_TIMEOUT"); v != "" {
		if err := c.Spotify.RequestTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%w: SPOTIFY_REQUEST_TIMEOUT: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Validate checks that the settings needed to serve requests are present.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return ErrMissingCredentials
	}
	if c.Spotify.RedirectURI == "" {
		return fmt.Errorf("%w: spotify.redirect_uri is empty", ErrInvalidConfig)
	}
	if c.Session.JWTSecret == "" {
		return fmt.Errorf("%w: session.jwt_secret is empty", ErrInvalidConfig)
	}
	switch c.Session.CredentialBackend {
	case "cookie":
		if c.Session.CookieSecret == "" {
			return fmt.Errorf("%w: session.cookie_secret is empty", ErrInvalidConfig)
		}
	case "redis":
		if c.Session.RedisURL == "" {
			return fmt.Errorf("%w: session.redis_url is empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown credential backend %q", ErrInvalidConfig, c.Session.CredentialBackend)
	}
	return nil
}
