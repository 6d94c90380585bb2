package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
)

const (
	maxTracksPerRequest = 100
	trackURIPrefix      = "spotify:track:"
)

// CreatePlaylist creates a playlist on userID's account.
func (c *Client) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*Playlist, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	pl, err := c.api.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, fmt.Errorf("creating playlist: %w", classify(err))
	}

	return &Playlist{
		ID:   pl.ID.String(),
		URL:  pl.ExternalURLs["spotify"],
		Name: pl.Name,
	}, nil
}

// AddTracks appends tracks to a playlist in the given order, batching per
// Spotify's limit of 100 per request. Accepts track URIs or bare IDs.
func (c *Client) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}

	ids := make([]spotify.ID, len(uris))
	for i, u := range uris {
		ids[i] = spotify.ID(TrackID(u))
	}

	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))

		if err := c.wait(ctx); err != nil {
			return err
		}
		if _, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids[i:end]...); err != nil {
			return fmt.Errorf("adding tracks (batch %d-%d): %w", i+1, end, classify(err))
		}
	}
	return nil
}

// TrackID strips the "spotify:track:" prefix from a track URI.
func TrackID(uri string) string {
	return strings.TrimPrefix(strings.TrimSpace(uri), trackURIPrefix)
}
