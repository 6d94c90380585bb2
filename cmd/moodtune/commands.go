package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/pmmd05/intento-proyecto-1/internal/analysis"
	"github.com/pmmd05/intento-proyecto-1/internal/appauth"
	"github.com/pmmd05/intento-proyecto-1/internal/auth"
	"github.com/pmmd05/intento-proyecto-1/internal/catalog"
	"github.com/pmmd05/intento-proyecto-1/internal/config"
	"github.com/pmmd05/intento-proyecto-1/internal/credentials"
	"github.com/pmmd05/intento-proyecto-1/internal/db"
	"github.com/pmmd05/intento-proyecto-1/internal/logging"
	"github.com/pmmd05/intento-proyecto-1/internal/playlist"
	"github.com/pmmd05/intento-proyecto-1/internal/recommend"
	"github.com/pmmd05/intento-proyecto-1/internal/spotify"
	"github.com/pmmd05/intento-proyecto-1/internal/vision"
	"github.com/pmmd05/intento-proyecto-1/internal/web"
)

const defaultTokenTTL = 24 * time.Hour

// loadConfig reads the configuration named by the --config flag.
func loadConfig(cmd *cli.Command) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, logging.New(cmd.Root().ErrWriter, cfg.Log.Level), nil
}

func newAuthenticator(cfg *config.Config, logger *log.Logger) (*auth.Authenticator, error) {
	return auth.New(auth.Config{
		ClientID:        cfg.Spotify.ClientID,
		ClientSecret:    cfg.Spotify.ClientSecret,
		RedirectURI:     cfg.Spotify.RedirectURI,
		ExchangeTimeout: cfg.Spotify.ExchangeTimeout.Duration,
		RevokeTimeout:   cfg.Spotify.RevokeTimeout.Duration,
	}, auth.WithLogger(logger))
}

func newCredentialStore(ctx context.Context, cfg *config.Config) (credentials.Store, func(), error) {
	opts := credentials.CookieOptions{Secure: cfg.Session.CookieSecure}

	switch cfg.Session.CredentialBackend {
	case "redis":
		rdb, err := credentials.NewRedisClient(cfg.Session.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return credentials.NewRedisStore(rdb, opts), func() { _ = rdb.Close() }, nil
	default:
		store, err := credentials.NewCookieStore(cfg.Session.CookieSecret, opts)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	store, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return store, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	authenticator, err := newAuthenticator(cfg, logger)
	if err != nil {
		return err
	}

	creds, closeCreds, err := newCredentialStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCreds()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	factory := spotify.NewFactory(
		spotify.WithBaseURL(cfg.Spotify.APIBaseURL),
		spotify.WithTimeout(cfg.Spotify.RequestTimeout.Duration),
		spotify.WithRateLimit(cfg.Spotify.RateLimit, cfg.Spotify.RateBurst),
	)

	aggregator, err := recommend.New(catalog.NewFromFactory(factory, catalog.WithLogger(logger)))
	if err != nil {
		return err
	}
	publisher := playlist.NewPublisherFromFactory(factory, playlist.WithPublisherLogger(logger))

	server, err := web.NewServer(web.ServerConfig{
		Addr:           cfg.Server.Addr,
		FrontendURL:    cfg.Server.FrontendURL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, web.Deps{
		Auth:        authenticator,
		Credentials: creds,
		Recommender: aggregator,
		Playlists:   playlist.NewService(publisher, store.Playlists(), store.Analyses()),
		Analyses:    analysis.New(vision.NewPaletteClassifier(vision.DefaultPaletteConfig()), store.Analyses()),
		Verifier:    appauth.NewVerifier(cfg.Session.JWTSecret),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info("configured", "credentials", cfg.Session.CredentialBackend, "frontend", cfg.Server.FrontendURL)
	return server.Run(ctx)
}

func authURL(_ context.Context, cmd *cli.Command) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	authenticator, err := newAuthenticator(cfg, logger)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, authenticator.AuthURL(cmd.String("state")))
	return err
}

func issueToken(_ context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Session.JWTSecret == "" {
		return errors.New("session.jwt_secret (JWT_SECRET) is not set")
	}

	token, err := appauth.NewIssuer(cfg.Session.JWTSecret).Issue(cmd.String("user"), cmd.Duration("ttl"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, token)
	return err
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("schema applied", "database", redactURL(cfg.Database.URL))
	return nil
}

// redactURL hides the password in a database URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}
