package vision

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/pmmd05/intento-proyecto-1/internal/emotion"
)

// PaletteConfig holds palette clustering parameters.
type PaletteConfig struct {
	NumClusters int // Number of color clusters (default: 4)
	MaxSamples  int // Upper bound on sampled pixels (default: 4096)
}

// DefaultPaletteConfig returns the recommended default configuration.
func DefaultPaletteConfig() PaletteConfig {
	return PaletteConfig{
		NumClusters: 4,
		MaxSamples:  4096,
	}
}

// PaletteClassifier clusters an image's colors and maps each cluster to an
// emotion by its energy and valence.
type PaletteClassifier struct {
	cfg PaletteConfig
}

// NewPaletteClassifier creates a PaletteClassifier.
func NewPaletteClassifier(cfg PaletteConfig) *PaletteClassifier {
	def := DefaultPaletteConfig()
	if cfg.NumClusters <= 0 {
		cfg.NumClusters = def.NumClusters
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = def.MaxSamples
	}
	return &PaletteClassifier{cfg: cfg}
}

// Classify decodes data and returns its emotion distribution.
func (c *PaletteClassifier) Classify(ctx context.Context, data []byte) (Distribution, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	obs, distinct := c.sample(img)
	k := min(c.cfg.NumClusters, distinct)

	km := kmeans.New()
	result, err := km.Partition(obs, k)
	if err != nil {
		return nil, fmt.Errorf("clustering palette: %w", err)
	}

	weights := make(map[emotion.Key]float64)
	for _, cluster := range result {
		if len(cluster.Observations) == 0 {
			continue
		}
		key := quadrant(cluster.Center[0], cluster.Center[1])
		weights[key] += float64(len(cluster.Observations))
	}
	return newDistribution(weights), nil
}

// sample returns pixel observations on a regular grid and the number of
// distinct feature points among them.
func (c *PaletteClassifier) sample(img image.Image) (clusters.Observations, int) {
	b := img.Bounds()
	step := 1
	if area := b.Dx() * b.Dy(); area > c.cfg.MaxSamples {
		step = int(math.Ceil(math.Sqrt(float64(area) / float64(c.cfg.MaxSamples))))
	}

	var obs clusters.Observations
	seen := make(map[[2]float64]struct{})
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			energy, valence := features(img.At(x, y).RGBA())
			obs = append(obs, clusters.Coordinates{energy, valence})
			seen[[2]float64{energy, valence}] = struct{}{}
		}
	}
	return obs, len(seen)
}

// features maps a pixel to (energy, valence) in [0,1].
// Energy follows saturation and brightness. Valence follows brightness and
// hue warmth, with grey pixels counted as neutral warmth.
func features(r, g, b, _ uint32) (energy, valence float64) {
	h, s, v := hsv(r, g, b)
	energy = 0.5*s + 0.5*v
	warmth := (math.Cos(2*math.Pi*(h-30)/360) + 1) / 2
	valence = 0.6*v + 0.4*(s*warmth+(1-s)*0.5)
	return energy, valence
}

// hsv converts 16-bit RGB to hue in degrees and saturation/value in [0,1].
func hsv(r, g, b uint32) (h, s, v float64) {
	rf := float64(r) / 0xffff
	gf := float64(g) / 0xffff
	bf := float64(b) / 0xffff

	maxC := max(rf, gf, bf)
	minC := min(rf, gf, bf)
	delta := maxC - minC

	v = maxC
	if maxC > 0 {
		s = delta / maxC
	}
	if delta == 0 {
		return 0, s, v
	}

	switch maxC {
	case rf:
		h = 60 * math.Mod((gf-bf)/delta, 6)
	case gf:
		h = 60 * ((bf-rf)/delta + 2)
	default:
		h = 60 * ((rf-gf)/delta + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

// quadrant maps a centroid to an emotion using an energy/valence grid.
//
// Quadrants:
//   - Very High Energy           = energetic
//   - High Energy + High Valence = happy
//   - High Energy + Low Valence  = angry
//   - Low Energy  + High Valence = relaxed
//   - Low Energy  + Low Valence  = sad
func quadrant(energy, valence float64) emotion.Key {
	highEnergy := energy > 0.6
	highValence := valence > 0.5

	switch {
	case energy > 0.9:
		return emotion.Energetic
	case highEnergy && highValence:
		return emotion.Happy
	case highEnergy && !highValence:
		return emotion.Angry
	case !highEnergy && highValence:
		return emotion.Relaxed
	default:
		return emotion.Sad
	}
}

var _ Classifier = (*PaletteClassifier)(nil)
