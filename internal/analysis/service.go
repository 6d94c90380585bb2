// Package analysis classifies uploaded images and records the result.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pmmd05/intento-proyecto-1/internal/db"
	"github.com/pmmd05/intento-proyecto-1/internal/vision"
)

// Result is the outcome of one analysis.
type Result struct {
	ID               uuid.UUID           `json:"id"`
	Emotion          string              `json:"emotion"`
	Confidence       float64             `json:"confidence"`
	EmotionsDetected vision.Distribution `json:"emotions_detected"`
	Timestamp        time.Time           `json:"timestamp"`
}

// Service handles image classification and persistence.
type Service struct {
	classifier vision.Classifier
	store      db.AnalysisStore
}

// New creates a new analysis service.
func New(classifier vision.Classifier, store db.AnalysisStore) *Service {
	return &Service{classifier: classifier, store: store}
}

// Analyze classifies image and saves the result for userID.
// Undecodable images return vision.ErrInvalidImage.
func (s *Service) Analyze(ctx context.Context, userID string, image []byte) (*Result, error) {
	dist, err := s.classifier.Classify(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("classifying image: %w", err)
	}
	top := dist.Top()

	rec := &db.Analysis{
		UserID:     userID,
		Emotion:    top.Emotion.String(),
		Confidence: top.Score,
		Emotions:   dist.Map(),
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving analysis: %w", err)
	}

	return &Result{
		ID:               rec.ID,
		Emotion:          rec.Emotion,
		Confidence:       rec.Confidence,
		EmotionsDetected: dist,
		Timestamp:        rec.CreatedAt,
	}, nil
}

// Get returns userID's analysis with the given id.
// Analyses owned by other users are reported as db.ErrNotFound.
func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (*db.Analysis, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading analysis %s: %w", id, err)
	}
	if a.UserID != userID {
		return nil, fmt.Errorf("loading analysis %s: %w", id, db.ErrNotFound)
	}
	return a, nil
}
