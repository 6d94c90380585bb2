// Package recommend is the entry point for emotion-based recommendations.
package recommend

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/pmmd05/intento-proyecto-1/internal/catalog"
	"github.com/pmmd05/intento-proyecto-1/internal/emotion"
	"github.com/pmmd05/intento-proyecto-1/internal/spotify"
)

//go:embed mockup.json
var mockupJSON []byte

// Fetcher produces recommendations for a validated emotion.
type Fetcher interface {
	Fetch(ctx context.Context, accessToken string, key emotion.Key) (*catalog.Result, error)
}

// Aggregator validates input and delegates to a Fetcher.
type Aggregator struct {
	fetcher Fetcher
	mockup  map[emotion.Key][]spotify.Track
	shuffle func([]spotify.Track)
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithShuffle replaces the shuffle applied to mockup results.
func WithShuffle(fn func([]spotify.Track)) Option {
	return func(a *Aggregator) {
		a.shuffle = fn
	}
}

// New creates an Aggregator.
func New(fetcher Fetcher, opts ...Option) (*Aggregator, error) {
	var mock map[emotion.Key][]spotify.Track
	if err := json.Unmarshal(mockupJSON, &mock); err != nil {
		return nil, fmt.Errorf("parsing mockup catalog: %w", err)
	}

	a := &Aggregator{
		fetcher: fetcher,
		mockup:  mock,
		shuffle: func(ts []spotify.Track) {
			rand.Shuffle(len(ts), func(i, j int) { ts[i], ts[j] = ts[j], ts[i] })
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Recommend normalizes raw and returns the catalog result unchanged.
// An unsupported emotion fails with emotion.ErrUnknownEmotion before any network call.
func (a *Aggregator) Recommend(ctx context.Context, accessToken, raw string) (*catalog.Result, error) {
	key, err := emotion.Parse(raw)
	if err != nil {
		return nil, err
	}
	return a.fetcher.Fetch(ctx, accessToken, key)
}

// Mockup returns bundled sample tracks for raw without touching Spotify.
func (a *Aggregator) Mockup(raw string) (*catalog.Result, error) {
	key, err := emotion.Parse(raw)
	if err != nil {
		return nil, err
	}

	tracks := append([]spotify.Track(nil), a.mockup[key]...)
	a.shuffle(tracks)
	if len(tracks) > catalog.MaxTracks {
		tracks = tracks[:catalog.MaxTracks]
	}

	return &catalog.Result{
		Tracks:       tracks,
		Emotion:      key,
		TotalTracks:  len(tracks),
		SearchMethod: catalog.MethodMockup,
		Note:         "sample data; connect Spotify for real recommendations",
	}, nil
}
