package db

import (
	"time"

	"github.com/google/uuid"
)

// Playlist records a playlist published to a user's Spotify account.
type Playlist struct {
	ID          uuid.UUID  `json:"id"`
	AnalysisID  *uuid.UUID `json:"analysis_id,omitempty"` // nullable
	UserID      string     `json:"user_id"`
	Emotion     string     `json:"emotion"`
	Name        string     `json:"name"`
	ExternalID  string     `json:"spotify_id"`
	ExternalURL string     `json:"spotify_url"`
	TrackCount  int        `json:"track_count"`
	Saved       bool       `json:"saved_to_spotify"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Analysis records one image classification.
type Analysis struct {
	ID         uuid.UUID          `json:"id"`
	UserID     string             `json:"user_id"`
	Emotion    string             `json:"emotion"`
	Confidence float64            `json:"confidence"`
	Emotions   map[string]float64 `json:"emotions"`
	CreatedAt  time.Time          `json:"created_at"`
}
