// Package vision estimates an emotion distribution from an image.
package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"slices"

	"github.com/pmmd05/intento-proyecto-1/internal/emotion"
)

// ErrInvalidImage is returned when the input cannot be decoded as an image.
var ErrInvalidImage = errors.New("invalid image")

// Score is one emotion's share of a distribution.
type Score struct {
	Emotion emotion.Key `json:"emotion"`
	Score   float64     `json:"score"`
}

// Distribution lists every emotion with its score, highest first.
// Scores sum to 1.
type Distribution []Score

// Top returns the highest scoring entry.
func (d Distribution) Top() Score {
	if len(d) == 0 {
		return Score{}
	}
	return d[0]
}

// Map returns the distribution keyed by emotion name.
func (d Distribution) Map() map[string]float64 {
	m := make(map[string]float64, len(d))
	for _, s := range d {
		m[s.Emotion.String()] = s.Score
	}
	return m
}

// Classifier turns an encoded image into an emotion distribution.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (Distribution, error)
}

// decode parses JPEG, PNG or GIF data.
func decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrInvalidImage
	}
	return img, nil
}

// newDistribution normalizes weights and orders them highest first.
// Emotions without weight are listed with a zero score.
func newDistribution(weights map[emotion.Key]float64) Distribution {
	var total float64
	for _, w := range weights {
		total += w
	}

	d := make(Distribution, 0, len(emotion.All))
	for _, k := range emotion.All {
		var s float64
		if total > 0 {
			s = weights[k] / total
		}
		d = append(d, Score{Emotion: k, Score: s})
	}

	// Stable keeps emotion.All order among ties.
	slices.SortStableFunc(d, func(a, b Score) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return d
}
