package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const defaultListLimit = 50

// PlaylistRepository handles playlist database operations.
type PlaylistRepository struct {
	pool Pool
}

// Create inserts a playlist record, assigning an ID when unset.
func (r *PlaylistRepository) Create(ctx context.Context, p *Playlist) error {
	query := `
		INSERT INTO playlists (id, analysis_id, user_id, emotion, name, external_id, external_url, track_count, saved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, query,
		p.ID,
		p.AnalysisID,
		p.UserID,
		p.Emotion,
		p.Name,
		p.ExternalID,
		p.ExternalURL,
		p.TrackCount,
		p.Saved,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}
	return nil
}

// ListForUser returns a user's playlists, newest first.
func (r *PlaylistRepository) ListForUser(ctx context.Context, userID string, limit int) ([]Playlist, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `
		SELECT id, analysis_id, user_id, emotion, name, external_id, external_url, track_count, saved, created_at
		FROM playlists
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying user playlists: %w", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(
			&p.ID,
			&p.AnalysisID,
			&p.UserID,
			&p.Emotion,
			&p.Name,
			&p.ExternalID,
			&p.ExternalURL,
			&p.TrackCount,
			&p.Saved,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}
