// Package catalog turns an emotion into a list of playable tracks, reading the
// emotion's curated playlist first and falling back to genre searches.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/pmmd05/intento-proyecto-1/internal/emotion"
	"github.com/pmmd05/intento-proyecto-1/internal/spotify"
)

const (
	// MaxTracks caps every result.
	MaxTracks = 30

	pageSize    = 50
	searchLimit = 20
	// maxPages bounds playlist paging if the provider keeps advertising a next page.
	maxPages = 40
)

var (
	// ErrTokenExpired is returned when Spotify rejects the access token.
	ErrTokenExpired = spotify.ErrTokenExpired

	// ErrCatalogUnavailable marks a non-auth failure of the curated playlist read.
	// Fetch recovers from it by falling back.
	ErrCatalogUnavailable = errors.New("curated catalog unavailable")

	// ErrFallbackExhausted is returned when neither the playlist nor any genre search yielded tracks.
	ErrFallbackExhausted = errors.New("no tracks found for emotion")
)

// Method records how a result was produced.
type Method string

// Result methods.
const (
	MethodPlaylist Method = "playlist_based"
	MethodFallback Method = "fallback_genre_based"
	MethodMockup   Method = "mockup"
	MethodError    Method = "error"
)

// Result is a recommendation set for one emotion.
type Result struct {
	Tracks              []spotify.Track `json:"tracks"`
	Emotion             emotion.Key     `json:"emotion"`
	TotalTracks         int             `json:"total_tracks"`
	SearchMethod        Method          `json:"search_method"`
	Note                string          `json:"note,omitempty"`
	PlaylistUsed        string          `json:"playlist_used,omitempty"`
	AvailableInPlaylist int             `json:"available_in_playlist,omitempty"`
	GenresUsed          []string        `json:"genres_used,omitempty"`
	Error               string          `json:"error,omitempty"`
}

// Source is the subset of the Spotify client the fetcher reads from.
type Source interface {
	PlaylistTracks(ctx context.Context, playlistID string, offset, limit int) (*spotify.TrackPage, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]spotify.Track, error)
}

// Fetcher produces recommendation results from the Spotify catalog.
type Fetcher struct {
	newSource func(accessToken string) Source
	shuffle   func([]spotify.Track)
	logger    *log.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithShuffle replaces the shuffle applied to playlist results.
func WithShuffle(fn func([]spotify.Track)) Option {
	return func(f *Fetcher) {
		f.shuffle = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// New creates a Fetcher that opens a Source per access token.
func New(newSource func(accessToken string) Source, opts ...Option) *Fetcher {
	f := &Fetcher{
		newSource: newSource,
		shuffle: func(ts []spotify.Track) {
			rand.Shuffle(len(ts), func(i, j int) { ts[i], ts[j] = ts[j], ts[i] })
		},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFromFactory creates a Fetcher backed by real Spotify clients.
func NewFromFactory(factory *spotify.Factory, opts ...Option) *Fetcher {
	return New(func(token string) Source { return factory.ForToken(token) }, opts...)
}

// Fetch returns up to MaxTracks tracks for key.
//
// A 401 at any point yields a result tagged "error" together with
// ErrTokenExpired, and no fallback is attempted. When both strategies come up
// empty the result is tagged "error" and ErrFallbackExhausted is returned.
func (f *Fetcher) Fetch(ctx context.Context, accessToken string, key emotion.Key) (*Result, error) {
	playlistID, ok := emotion.CatalogID(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", emotion.ErrUnknownEmotion, key)
	}
	src := f.newSource(accessToken)

	tracks, err := f.fromPlaylist(ctx, src, playlistID)
	if errors.Is(err, ErrTokenExpired) {
		return expired(key), fmt.Errorf("reading curated playlist: %w", err)
	}
	if err != nil {
		f.logger.Warn("curated playlist read failed", "emotion", key, "playlist", playlistID, "collected", len(tracks), "err", err)
	}

	if len(tracks) > 0 {
		available := len(tracks)
		f.shuffle(tracks)
		if len(tracks) > MaxTracks {
			tracks = tracks[:MaxTracks]
		}
		return &Result{
			Tracks:              tracks,
			Emotion:             key,
			TotalTracks:         len(tracks),
			SearchMethod:        MethodPlaylist,
			Note:                fmt.Sprintf("%d random tracks from the curated %s playlist", len(tracks), key),
			PlaylistUsed:        playlistID,
			AvailableInPlaylist: available,
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return f.fromGenres(ctx, src, key)
}

// fromPlaylist pages through the curated playlist, keeping valid tracks.
// On a non-auth failure it returns what was collected so far along with an
// error wrapping ErrCatalogUnavailable.
func (f *Fetcher) fromPlaylist(ctx context.Context, src Source, playlistID string) ([]spotify.Track, error) {
	var valid []spotify.Track

	for page, offset := 0, 0; page < maxPages; page, offset = page+1, offset+pageSize {
		p, err := src.PlaylistTracks(ctx, playlistID, offset, pageSize)
		if errors.Is(err, ErrTokenExpired) {
			return nil, err
		}
		if err != nil {
			return valid, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
		}

		for _, t := range p.Tracks {
			if t.Valid() {
				valid = append(valid, t)
			}
		}
		if !p.HasNext {
			break
		}
	}
	return valid, nil
}

// fromGenres searches each of the emotion's genres in order until MaxTracks
// tracks with distinct case-folded names are collected.
func (f *Fetcher) fromGenres(ctx context.Context, src Source, key emotion.Key) (*Result, error) {
	seen := make(map[string]struct{})
	var (
		tracks []spotify.Track
		used   []string
	)

	for _, genre := range emotion.Genres(key) {
		if len(tracks) >= MaxTracks {
			break
		}

		found, err := src.SearchTracks(ctx, "genre:"+genre, searchLimit)
		if errors.Is(err, ErrTokenExpired) {
			return expired(key), fmt.Errorf("searching genre %s: %w", genre, err)
		}
		if err != nil {
			f.logger.Warn("genre search failed", "emotion", key, "genre", genre, "err", err)
			continue
		}
		used = append(used, genre)

		slices.SortStableFunc(found, func(a, b spotify.Track) int {
			return b.Popularity - a.Popularity
		})

		for _, t := range found {
			if len(tracks) >= MaxTracks {
				break
			}
			if !t.Valid() {
				continue
			}
			name := strings.ToLower(strings.TrimSpace(t.Name))
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			t.Genre = genre
			tracks = append(tracks, t)
		}
	}

	if len(tracks) == 0 {
		return &Result{
			Tracks:       []spotify.Track{},
			Emotion:      key,
			SearchMethod: MethodError,
			Note:         "no tracks found in the curated playlist or by genre",
			GenresUsed:   used,
			Error:        "no_tracks",
		}, ErrFallbackExhausted
	}

	return &Result{
		Tracks:       tracks,
		Emotion:      key,
		TotalTracks:  len(tracks),
		SearchMethod: MethodFallback,
		Note:         "curated playlist unavailable; tracks found by genre search",
		GenresUsed:   used,
	}, nil
}

func expired(key emotion.Key) *Result {
	return &Result{
		Tracks:       []spotify.Track{},
		Emotion:      key,
		SearchMethod: MethodError,
		Note:         "Spotify session expired; reconnect your account",
		Error:        "token_expired",
	}
}
