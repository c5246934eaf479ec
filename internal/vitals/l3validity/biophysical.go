package l3validity

import (
	"math"

	"github.com/banshee-data/vitals.report/internal/units"
	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
	"github.com/banshee-data/vitals.report/internal/vitals/ring"
)

// Physiological bands scored by the biophysical validator.
var (
	RedIntensityBand = Range{Min: 60, Max: 250}
	RedGreenBand     = Range{Min: 1.5, Max: 8}
	RedBlueBand      = Range{Min: 1.5, Max: 10}
	PulsatilityBand  = Range{Min: 0.08, Max: 8}
)

const (
	// pulsatilityWindow is the raw-value history length.
	pulsatilityWindow = 30
	// minPulsatilitySamples is the history needed before pulsatility and
	// temporal consistency are judged.
	minPulsatilitySamples = 10
)

// Biophysical is the biophysical range verdict for one frame.
type Biophysical struct {
	RedScore        float64
	RedGreenScore   float64
	RedBlueScore    float64
	HemoglobinScore float64 // Mean of the three band scores

	Pulsatility         float64 // Percent: 100 x std-dev / mean of the raw history
	PulsatilityValid    bool
	TemporalConsistency float64 // 1 - coefficient of variation, clamped to [0, 1]
}

// BiophysicalValidator scores channel statistics against physiological bands
// and tracks the pulsatility of the raw signal.
type BiophysicalValidator struct {
	raw *ring.Buffer[float64]
}

// NewBiophysicalValidator returns a validator with an empty raw history.
func NewBiophysicalValidator() *BiophysicalValidator {
	return &BiophysicalValidator{raw: ring.New[float64](pulsatilityWindow)}
}

// Evaluate records raw and scores the frame.
func (v *BiophysicalValidator) Evaluate(s l1frames.ChannelStats, raw float64) Biophysical {
	v.raw.Push(raw)

	b := Biophysical{
		RedScore:            TriangularScore(s.MeanRed, RedIntensityBand),
		RedGreenScore:       TriangularScore(s.MeanRed/math.Max(s.MeanGreen, 1), RedGreenBand),
		RedBlueScore:        TriangularScore(s.MeanRed/math.Max(s.MeanBlue, 1), RedBlueBand),
		PulsatilityValid:    true,
		TemporalConsistency: 1,
	}
	b.HemoglobinScore = (b.RedScore + b.RedGreenScore + b.RedBlueScore) / 3

	if v.raw.Len() >= minPulsatilitySamples {
		cv := variation(v.raw.Values())
		b.Pulsatility = 100 * cv
		b.PulsatilityValid = PulsatilityBand.Contains(b.Pulsatility)
		b.TemporalConsistency = units.Clamp(1-cv, 0, 1)
	}
	return b
}

// Reset clears the raw history.
func (v *BiophysicalValidator) Reset() {
	v.raw.Clear()
}

// TriangularScore is 1 at the centre of band, falls linearly to 0 at its
// edges and is 0 outside.
func TriangularScore(v float64, band Range) float64 {
	if !band.Contains(v) {
		return 0
	}
	half := (band.Max - band.Min) / 2
	if half <= 0 {
		return 1
	}
	centre := band.Min + half
	return 1 - math.Abs(v-centre)/half
}
