// Package playlist publishes recommendation sets as playlists on the user's
// Spotify account and records them.
package playlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pmmd05/intento-proyecto-1/internal/emotion"
	"github.com/pmmd05/intento-proyecto-1/internal/spotify"
)

// ErrNoTracks is returned when asked to publish an empty track list.
var ErrNoTracks = errors.New("no tracks to publish")

// Kind classifies a publish failure.
type Kind string

// Publish failure kinds.
const (
	KindTokenExpired Kind = "token_expired"
	KindRejected     Kind = "rejected"
)

// PublishError describes a failed publish. PartialID is set when the playlist
// was created but its tracks could not all be added.
type PublishError struct {
	Kind      Kind
	Status    int
	PartialID string
	Err       error
}

func (e *PublishError) Error() string {
	if e.PartialID != "" {
		return fmt.Sprintf("publish %s (playlist %s created without all tracks): %v", e.Kind, e.PartialID, e.Err)
	}
	return fmt.Sprintf("publish %s: %v", e.Kind, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Target is the subset of the Spotify client needed to publish.
type Target interface {
	CurrentUserID(ctx context.Context) (string, error)
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*spotify.Playlist, error)
	AddTracks(ctx context.Context, playlistID string, uris []string) error
}

// Created describes a published playlist.
type Created struct {
	ExternalID  string
	ExternalURL string
	Name        string
	TrackCount  int
}

// Publisher creates private playlists from track URIs.
type Publisher struct {
	newTarget func(accessToken string) Target
	now       func() time.Time
	logger    *log.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithClock sets the time source used for playlist names.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		p.now = now
	}
}

// WithPublisherLogger sets the logger.
func WithPublisherLogger(l *log.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = l
	}
}

// NewPublisher creates a Publisher that opens a Target per access token.
func NewPublisher(newTarget func(accessToken string) Target, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		newTarget: newTarget,
		now:       time.Now,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPublisherFromFactory creates a Publisher backed by real Spotify clients.
func NewPublisherFromFactory(factory *spotify.Factory, opts ...PublisherOption) *Publisher {
	return NewPublisher(func(token string) Target { return factory.ForToken(token) }, opts...)
}

// Name returns the playlist name used for key on day t.
func Name(key emotion.Key, t time.Time) string {
	return fmt.Sprintf("Moodtune · %s · %s", key.Title(), t.Format("2006-01-02"))
}

// Publish creates a private playlist for key on the user's account and adds
// uris in order. Empty uris fail with ErrNoTracks before any network call.
func (p *Publisher) Publish(ctx context.Context, accessToken string, key emotion.Key, uris []string) (*Created, error) {
	if len(uris) == 0 {
		return nil, ErrNoTracks
	}

	target := p.newTarget(accessToken)

	userID, err := target.CurrentUserID(ctx)
	if err != nil {
		return nil, publishError(err, "")
	}

	name := Name(key, p.now())
	desc := fmt.Sprintf("%d tracks picked for a %s mood.", len(uris), key)

	pl, err := target.CreatePlaylist(ctx, userID, name, desc, false)
	if err != nil {
		return nil, publishError(err, "")
	}

	if err := target.AddTracks(ctx, pl.ID, uris); err != nil {
		p.logger.Error("playlist created but adding tracks failed", "playlist", pl.ID, "tracks", len(uris), "err", err)
		return nil, publishError(err, pl.ID)
	}

	return &Created{
		ExternalID:  pl.ID,
		ExternalURL: pl.URL,
		Name:        name,
		TrackCount:  len(uris),
	}, nil
}

func publishError(err error, partialID string) *PublishError {
	kind := KindRejected
	if errors.Is(err, spotify.ErrTokenExpired) {
		kind = KindTokenExpired
	}
	return &PublishError{Kind: kind, Status: spotify.StatusCode(err), PartialID: partialID, Err: err}
}
