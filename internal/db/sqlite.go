package db

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLite is a Store backed by a local SQLite file, used for development.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the SQLite database at path. The path can be ":memory:".
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// one connection keeps :memory: databases coherent and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() {
	_ = s.db.Close()
}

// Migrate creates the tables if they do not exist.
func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Playlists returns the playlist store.
func (s *SQLite) Playlists() PlaylistStore {
	return &sqlitePlaylists{db: s.db}
}

// Analyses returns the analysis store.
func (s *SQLite) Analyses() AnalysisStore {
	return &sqliteAnalyses{db: s.db}
}

type sqlitePlaylists struct {
	db *sql.DB
}

func (r *sqlitePlaylists) Create(ctx context.Context, p *Playlist) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	var analysisID sql.NullString
	if p.AnalysisID != nil {
		analysisID = sql.NullString{String: p.AnalysisID.String(), Valid: true}
	}
	p.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO playlists (id, analysis_id, user_id, emotion, name, external_id, external_url, track_count, saved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), analysisID, p.UserID, p.Emotion, p.Name, p.ExternalID, p.ExternalURL, p.TrackCount, p.Saved, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}
	return nil
}

func (r *sqlitePlaylists) ListForUser(ctx context.Context, userID string, limit int) ([]Playlist, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, analysis_id, user_id, emotion, name, external_id, external_url, track_count, saved, created_at
		FROM playlists
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying user playlists: %w", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var (
			p          Playlist
			id         string
			analysisID sql.NullString
		)
		if err := rows.Scan(&id, &analysisID, &p.UserID, &p.Emotion, &p.Name, &p.ExternalID, &p.ExternalURL, &p.TrackCount, &p.Saved, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning playlist: %w", err)
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing playlist id: %w", err)
		}
		if analysisID.Valid {
			aid, err := uuid.Parse(analysisID.String)
			if err != nil {
				return nil, fmt.Errorf("parsing analysis id: %w", err)
			}
			p.AnalysisID = &aid
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

type sqliteAnalyses struct {
	db *sql.DB
}

func (r *sqliteAnalyses) Create(ctx context.Context, a *Analysis) error {
	emotions, err := json.Marshal(a.Emotions)
	if err != nil {
		return fmt.Errorf("encoding emotions: %w", err)
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analyses (id, user_id, emotion, confidence, emotions, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.UserID, a.Emotion, a.Confidence, string(emotions), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting analysis: %w", err)
	}
	return nil
}

func (r *sqliteAnalyses) Get(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	var (
		a        Analysis
		rawID    string
		emotions string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, emotion, confidence, emotions, created_at
		FROM analyses
		WHERE id = ?`, id.String()).Scan(&rawID, &a.UserID, &a.Emotion, &a.Confidence, &emotions, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying analysis: %w", err)
	}
	if a.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parsing analysis id: %w", err)
	}
	if err := json.Unmarshal([]byte(emotions), &a.Emotions); err != nil {
		return nil, fmt.Errorf("decoding emotions: %w", err)
	}
	return &a, nil
}

var _ Store = (*SQLite)(nil)
