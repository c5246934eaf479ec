package l3validity

import (
	"math"

	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
	"github.com/banshee-data/vitals.report/internal/vitals/ring"
	"gonum.org/v1/gonum/stat"
)

// Reasons reported by the artificial-source detector.
const (
	ReasonLEDSource          = "led_source"
	ReasonBalancedLight      = "balanced_light"
	ReasonMetallicSurface    = "metallic_surface"
	ReasonNonBiologicalColor = "non_biological_color"
	ReasonAbnormalStability  = "abnormal_stability"
	ReasonRepetitiveJumps    = "repetitive_jumps"
	ReasonSaturated          = "saturated"
	ReasonTooWeak            = "too_weak"
)

// minTemporalHistory is the number of red samples needed before the
// stability and jump checks run.
const minTemporalHistory = 10

// ArtificialResult is the artificial-source verdict for one frame.
type ArtificialResult struct {
	IsArtificial bool
	Reasons      []string
}

// ArtificialSourceDetector flags LEDs, reflective surfaces, non-skin colour
// and signals whose temporal behaviour is implausible for blood flow.
type ArtificialSourceDetector struct {
	cfg     ArtificialConfig
	history *ring.Buffer[float64]
}

// NewArtificialSourceDetector returns a detector with an empty history.
func NewArtificialSourceDetector(cfg ArtificialConfig) *ArtificialSourceDetector {
	return &ArtificialSourceDetector{
		cfg:     cfg,
		history: ring.New[float64](cfg.HistorySize),
	}
}

// Evaluate records the frame's red intensity and runs every check. All
// triggered reasons are collected. Temporal checks run only when temporal is
// true.
func (d *ArtificialSourceDetector) Evaluate(s l1frames.ChannelStats, temporal bool) ArtificialResult {
	d.history.Push(s.MeanRed)

	var reasons []string
	c := d.cfg
	spread := s.Spread()
	brightness := s.Brightness()

	if s.MaxChannel() > c.LEDChannelMax && spread < c.LEDSpreadMax && s.Stability > c.LEDStabilityMin {
		reasons = append(reasons, ReasonLEDSource)
	}
	if brightness >= c.BalancedBrightnessMin && spread < c.LEDSpreadMax {
		reasons = append(reasons, ReasonBalancedLight)
	}
	if brightness > c.MetalBrightnessMin && s.TextureScore < c.MetalTextureMax && spread < c.MetalSpreadMax {
		reasons = append(reasons, ReasonMetallicSurface)
	}
	if !d.skinColor(s) {
		reasons = append(reasons, ReasonNonBiologicalColor)
	}
	if temporal && d.history.Len() >= minTemporalHistory {
		values := d.history.Values()
		if variation(values) < c.MinVariation {
			reasons = append(reasons, ReasonAbnormalStability)
		}
		if d.repetitiveJumps(values) {
			reasons = append(reasons, ReasonRepetitiveJumps)
		}
	}
	if s.MaxChannel() >= c.SaturationLevel {
		reasons = append(reasons, ReasonSaturated)
	}
	if s.MeanRed < c.WeakLevel {
		reasons = append(reasons, ReasonTooWeak)
	}

	return ArtificialResult{IsArtificial: len(reasons) > 0, Reasons: reasons}
}

func (d *ArtificialSourceDetector) skinColor(s l1frames.ChannelStats) bool {
	if s.MeanRed < d.cfg.SkinRedMin {
		return false
	}
	rg := s.MeanRed / math.Max(s.MeanGreen, 1)
	rb := s.MeanRed / math.Max(s.MeanBlue, 1)
	return rg >= d.cfg.SkinRatioMin && rb >= d.cfg.SkinRatioMin
}

// repetitiveJumps reports whether more than JumpFraction of the
// frame-to-frame deltas exceed JumpMultiplier times the mean delta.
func (d *ArtificialSourceDetector) repetitiveJumps(values []float64) bool {
	if len(values) < 2 {
		return false
	}
	deltas := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		deltas[i-1] = math.Abs(values[i] - values[i-1])
	}
	mean := stat.Mean(deltas, nil)
	if mean == 0 {
		return false
	}
	jumps := 0
	for _, dv := range deltas {
		if dv > d.cfg.JumpMultiplier*mean {
			jumps++
		}
	}
	return float64(jumps)/float64(len(deltas)) > d.cfg.JumpFraction
}

// Reset clears the intensity history.
func (d *ArtificialSourceDetector) Reset() {
	d.history.Clear()
}

// variation returns the coefficient of variation of values (population
// standard deviation over mean), or 0 when the mean is not positive.
func variation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean <= 0 {
		return 0
	}
	return std / mean
}
