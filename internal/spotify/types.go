package spotify

// Track is a playable recommendation in the shape returned to clients.
type Track struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	Album       Album    `json:"album"`
	ExternalURL string   `json:"external_url"`
	URI         string   `json:"uri"`
	DurationMs  int      `json:"duration_ms"`
	Popularity  int      `json:"popularity"`
	PreviewURL  string   `json:"preview_url,omitempty"`
	Genre       string   `json:"genre,omitempty"` // set only by genre search
}

// Artist is a credited performer.
type Artist struct {
	Name string `json:"name"`
}

// Album is the release a track belongs to.
type Album struct {
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Image is album artwork.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Valid reports whether the track carries an id, a name and at least one artist.
func (t Track) Valid() bool {
	return t.ID != "" && t.Name != "" && len(t.Artists) > 0
}

// TrackPage is one page of playlist items.
type TrackPage struct {
	Tracks  []Track
	Total   int
	HasNext bool
}

// Playlist identifies a playlist created on the user's account.
type Playlist struct {
	ID   string
	URL  string
	Name string
}
