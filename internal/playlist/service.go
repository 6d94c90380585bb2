package playlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pmmd05/intento-proyecto-1/internal/db"
	"github.com/pmmd05/intento-proyecto-1/internal/emotion"
)

// ErrInvalidAnalysisID is returned when a request references a malformed,
// unknown or foreign analysis id.
var ErrInvalidAnalysisID = errors.New("invalid analysis id")

// Repository stores playlist records.
type Repository interface {
	Create(ctx context.Context, p *db.Playlist) error
	ListForUser(ctx context.Context, userID string, limit int) ([]db.Playlist, error)
}

// AnalysisLookup reads analysis records.
type AnalysisLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*db.Analysis, error)
}

// Request asks for a playlist built from recommended tracks.
type Request struct {
	Emotion    string   `json:"emotion"`
	TrackURIs  []string `json:"track_uris"`
	AnalysisID string   `json:"analysis_id,omitempty"`
}

// Service publishes playlists and records them.
type Service struct {
	publisher *Publisher
	repo      Repository
	analyses  AnalysisLookup
}

// NewService creates a Service.
func NewService(publisher *Publisher, repo Repository, analyses AnalysisLookup) *Service {
	return &Service{publisher: publisher, repo: repo, analyses: analyses}
}

// CreateAndSave publishes req on the user's Spotify account and stores a
// record of it.
func (s *Service) CreateAndSave(ctx context.Context, userID, accessToken string, req Request) (*db.Playlist, error) {
	key, err := emotion.Parse(req.Emotion)
	if err != nil {
		return nil, err
	}
	if len(req.TrackURIs) == 0 {
		return nil, ErrNoTracks
	}

	analysisID, err := s.ownedAnalysis(ctx, userID, req.AnalysisID)
	if err != nil {
		return nil, err
	}

	created, err := s.publisher.Publish(ctx, accessToken, key, req.TrackURIs)
	if err != nil {
		return nil, err
	}

	rec := &db.Playlist{
		AnalysisID:  analysisID,
		UserID:      userID,
		Emotion:     key.String(),
		Name:        created.Name,
		ExternalID:  created.ExternalID,
		ExternalURL: created.ExternalURL,
		TrackCount:  created.TrackCount,
		Saved:       true,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving playlist %s: %w", created.ExternalID, err)
	}
	return rec, nil
}

// ownedAnalysis resolves raw to an analysis recorded for userID. Nothing is
// published for a request whose analysis cannot be linked.
func (s *Service) ownedAnalysis(ctx context.Context, userID, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnalysisID, err)
	}

	a, err := s.analyses.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s not found", ErrInvalidAnalysisID, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading analysis %s: %w", id, err)
	}
	if a.UserID != userID {
		return nil, fmt.Errorf("%w: %s not found", ErrInvalidAnalysisID, id)
	}
	return &id, nil
}

// List returns the user's recorded playlists, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]db.Playlist, error) {
	playlists, err := s.repo.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}
	return playlists, nil
}
