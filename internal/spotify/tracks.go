package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// maxArtists is how many credited artists are kept per track.
const maxArtists = 2

// PlaylistTracks fetches one page of a playlist's tracks.
// Local files and removed entries are skipped.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string, offset, limit int) (*TrackPage, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	page, err := c.api.GetPlaylistTracks(ctx, spotify.ID(playlistID), spotify.Limit(limit), spotify.Offset(offset))
	if err != nil {
		return nil, fmt.Errorf("fetching playlist %s (offset %d): %w", playlistID, offset, classify(err))
	}

	tracks := make([]Track, 0, len(page.Tracks))
	for _, item := range page.Tracks {
		if item.IsLocal {
			continue
		}
		tracks = append(tracks, convertTrack(item.Track))
	}

	return &TrackPage{
		Tracks:  tracks,
		Total:   int(page.Total),
		HasNext: page.Next != "",
	}, nil
}

// SearchTracks runs a track search and returns up to limit results.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	res, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, classify(err))
	}
	if res.Tracks == nil {
		return nil, nil
	}

	tracks := make([]Track, 0, len(res.Tracks.Tracks))
	for _, t := range res.Tracks.Tracks {
		tracks = append(tracks, convertTrack(t))
	}
	return tracks, nil
}

// convertTrack converts a Spotify FullTrack into a Track, keeping at most two artists.
func convertTrack(t spotify.FullTrack) Track {
	n := min(len(t.Artists), maxArtists)
	artists := make([]Artist, 0, n)
	for _, a := range t.Artists[:n] {
		artists = append(artists, Artist{Name: a.Name})
	}

	images := make([]Image, 0, len(t.Album.Images))
	for _, img := range t.Album.Images {
		images = append(images, Image{URL: img.URL, Height: int(img.Height), Width: int(img.Width)})
	}

	return Track{
		ID:          t.ID.String(),
		Name:        t.Name,
		Artists:     artists,
		Album:       Album{Name: t.Album.Name, Images: images},
		ExternalURL: t.ExternalURLs["spotify"],
		URI:         string(t.URI),
		DurationMs:  int(t.Duration),
		Popularity:  int(t.Popularity),
		PreviewURL:  t.PreviewURL,
	}
}
