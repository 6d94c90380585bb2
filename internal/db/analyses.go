package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AnalysisRepository handles analysis database operations.
type AnalysisRepository struct {
	pool Pool
}

// Create inserts an analysis record, assigning an ID when unset.
func (r *AnalysisRepository) Create(ctx context.Context, a *Analysis) error {
	emotions, err := json.Marshal(a.Emotions)
	if err != nil {
		return fmt.Errorf("encoding emotions: %w", err)
	}

	query := `
		INSERT INTO analyses (id, user_id, emotion, confidence, emotions, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err = r.pool.QueryRow(ctx, query,
		a.ID,
		a.UserID,
		a.Emotion,
		a.Confidence,
		emotions,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting analysis: %w", err)
	}
	return nil
}

// Get retrieves an analysis by ID.
func (r *AnalysisRepository) Get(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	query := `
		SELECT id, user_id, emotion, confidence, emotions, created_at
		FROM analyses
		WHERE id = $1
	`
	var (
		a        Analysis
		emotions []byte
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.UserID,
		&a.Emotion,
		&a.Confidence,
		&emotions,
		&a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying analysis: %w", err)
	}
	if err := json.Unmarshal(emotions, &a.Emotions); err != nil {
		return nil, fmt.Errorf("decoding emotions: %w", err)
	}
	return &a, nil
}
