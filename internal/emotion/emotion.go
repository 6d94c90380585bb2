// Package emotion defines the closed set of supported emotions and the
// static catalog tables keyed by them.
package emotion

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownEmotion is returned when an input does not name a supported emotion.
var ErrUnknownEmotion = errors.New("unknown emotion")

// Key identifies one of the supported emotions.
type Key string

// Supported emotions.
const (
	Happy     Key = "happy"
	Sad       Key = "sad"
	Angry     Key = "angry"
	Relaxed   Key = "relaxed"
	Energetic Key = "energetic"
)

// All lists every supported emotion in a stable order.
var All = []Key{Happy, Sad, Angry, Relaxed, Energetic}

// curated maps each emotion to its curated Spotify playlist.
var curated = map[Key]string{
	Happy:     "3fq31QHkcmRPG1uCPYBddE",
	Sad:       "5pQWxp24XiFAkndWCn7iRV",
	Angry:     "3K9T9G0qPgVxLPxWrfx8ro",
	Relaxed:   "5co67rVaHtvFpvAhKwq3JZ",
	Energetic: "2EkZaoauD493JdANvmSMaY",
}

// genres maps each emotion to the ordered genre list used by the fallback search.
var genres = map[Key][]string{
	Happy:     {"dance", "disco", "funk", "reggaeton"},
	Sad:       {"acoustic", "folk", "singer-songwriter", "indie", "piano"},
	Angry:     {"metal", "hard-rock", "punk", "grunge", "nu-metal"},
	Relaxed:   {"chill", "ambient", "classical", "jazz", "lofi"},
	Energetic: {"electronic", "dance", "house", "techno", "edm"},
}

// Parse case-folds raw and returns the matching Key.
func Parse(raw string) (Key, error) {
	k := Key(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := curated[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEmotion, raw)
	}
	return k, nil
}

// Valid reports whether k is a supported emotion.
func (k Key) Valid() bool {
	_, ok := curated[k]
	return ok
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return string(k)
}

// Title returns the emotion with its first letter upper-cased.
func (k Key) Title() string {
	if k == "" {
		return ""
	}
	s := string(k)
	return strings.ToUpper(s[:1]) + s[1:]
}

// CatalogID returns the curated playlist id for k.
func CatalogID(k Key) (string, bool) {
	id, ok := curated[k]
	return id, ok
}

// Genres returns a copy of the ordered fallback genre list for k.
func Genres(k Key) []string {
	return slices.Clone(genres[k])
}
