// Package db persists playlist and analysis records in PostgreSQL or SQLite.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema_postgres.sql
var postgresSchema string

// Common errors.
var (
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedURL is returned when a database URL has an unknown scheme.
	ErrUnsupportedURL = errors.New("unsupported database URL")
)

// PlaylistStore persists published playlists.
type PlaylistStore interface {
	Create(ctx context.Context, p *Playlist) error
	ListForUser(ctx context.Context, userID string, limit int) ([]Playlist, error)
}

// AnalysisStore persists emotion analyses.
type AnalysisStore interface {
	Create(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id uuid.UUID) (*Analysis, error)
}

// Store is a persistence backend.
type Store interface {
	Playlists() PlaylistStore
	Analyses() AnalysisStore
	Migrate(ctx context.Context) error
	Close()
}

// Open connects to the backend named by databaseURL: postgres:// and
// postgresql:// use pgx, sqlite:// uses SQLite.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return New(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return NewSQLite(strings.TrimPrefix(databaseURL, "sqlite://"))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, databaseURL)
	}
}

// Pool is the subset of *pgxpool.Pool the repositories use.
// It is satisfied by pgxmock pools in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool Pool) *DB {
	return &DB{pool: pool}
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Migrate creates the tables if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Playlists returns a PlaylistRepository.
func (db *DB) Playlists() PlaylistStore {
	return &PlaylistRepository{pool: db.pool}
}

// Analyses returns an AnalysisRepository.
func (db *DB) Analyses() AnalysisStore {
	return &AnalysisRepository{pool: db.pool}
}

var _ Store = (*DB)(nil)
