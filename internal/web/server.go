// Package web exposes the recommendation backend over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pmmd05/intento-proyecto-1/internal/appauth"
	"github.com/pmmd05/intento-proyecto-1/internal/credentials"
	"github.com/pmmd05/intento-proyecto-1/internal/logging"
)

const (
	// DefaultAddr is the default server address.
	DefaultAddr = "127.0.0.1:8000"

	defaultRequestTimeout = 60 * time.Second
	shutdownTimeout       = 10 * time.Second
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	FrontendURL    string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Deps are the services the handlers call.
type Deps struct {
	Auth        Authorizer
	Credentials credentials.Store
	Recommender Recommender
	Playlists   PlaylistService
	Analyses    Analyzer
	Verifier    *appauth.Verifier
	Logger      *log.Logger
}

// Server is the HTTP server for the API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	verifier *appauth.Verifier
	logger   *log.Logger
	cfg      ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Credentials == nil || deps.Recommender == nil {
		return nil, errors.New("web: auth, credentials and recommender are required")
	}
	if deps.Playlists == nil || deps.Analyses == nil || deps.Verifier == nil {
		return nil, errors.New("web: playlists, analyses and verifier are required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		router:   chi.NewRouter(),
		handlers: NewHandlers(deps, cfg.FrontendURL, logger),
		verifier: deps.Verifier,
		logger:   logger,
		cfg:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	s.router.Use(corsMiddleware(s.cfg.AllowedOrigins))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.Get("/health", h.Health)
	s.router.NotFound(h.NotFound)
	s.router.MethodNotAllowed(h.MethodNotAllowed)

	// Spotify connection
	s.router.Route("/v1/auth/{provider}", func(r chi.Router) {
		r.Use(h.requireProvider)
		r.Get("/", h.Connect)
		r.Get("/callback", h.Callback)
		r.Get("/status", h.Status)
		r.Post("/disconnect", h.Disconnect)
		r.Post("/revoke", h.Revoke)
	})

	// Recommendations
	s.router.Get("/recommend", h.Recommend)
	s.router.Get("/recommend/mockup", h.Mockup)

	// Routes requiring an application session
	s.router.Group(func(r chi.Router) {
		r.Use(s.verifier.Middleware)
		r.Post("/recommend/playlist", h.CreatePlaylist)
		r.Get("/v1/playlists", h.ListPlaylists)
		r.Post("/v1/analysis/analyze", h.Analyze)
		r.Post("/v1/analysis/analyze-base64", h.AnalyzeBase64)
		r.Get("/v1/analysis/{id}", h.GetAnalysis)
	})
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", "http://"+s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and shuts it down gracefully when ctx is canceled
// or an interrupt signal arrives.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
