package l2signal

import (
	"github.com/banshee-data/vitals.report/internal/vitals/ring"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultNormalizeWindow is the number of samples used to centre and scale
// values before peak detection.
const DefaultNormalizeWindow = 30

// Normalizer maps samples onto a zero-centred scale relative to the recent
// peak-to-peak range: (v - mean) / (max - min).
type Normalizer struct {
	window *ring.Buffer[float64]
}

// NewNormalizer returns a Normalizer over the given window length.
func NewNormalizer(window int) *Normalizer {
	if window < 2 {
		window = DefaultNormalizeWindow
	}
	return &Normalizer{window: ring.New[float64](window)}
}

// Normalize pushes v and returns its position relative to the window. A flat
// window yields 0.
func (n *Normalizer) Normalize(v float64) float64 {
	n.window.Push(v)
	vals := n.window.Values()
	span := floats.Max(vals) - floats.Min(vals)
	if span <= 0 {
		return 0
	}
	return (v - stat.Mean(vals, nil)) / span
}

// Reset discards the window.
func (n *Normalizer) Reset() {
	n.window.Clear()
}
