package l3validity

import (
	"math"

	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
)

// Range is an inclusive acceptance interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Empirical skin-texture acceptance ranges. A region must satisfy all four.
var (
	SkinRoughnessRange    = Range{Min: 0.02, Max: 0.15}
	SkinGradientRange     = Range{Min: 0.1, Max: 0.6}
	SkinPoreDensityRange  = Range{Min: 0.05, Max: 0.25}
	SkinIrregularityRange = Range{Min: 0.1, Max: 0.4}
)

// irregularityGrid is the coarse grid used for the irregularity estimate.
const irregularityGrid = 4

// SkinTexture holds the four texture estimators for one patch.
type SkinTexture struct {
	Evaluated         bool // False when no usable patch was supplied
	Roughness         float64
	GradientVariation float64
	PoreDensity       float64
	Irregularity      float64
	IsSkin            bool
}

// SkinTextureAnalyzer estimates whether a luminance patch has the surface
// structure of skin. It is stateless.
type SkinTextureAnalyzer struct{}

// Analyze computes the texture estimators for p. Without a patch of at least
// 3x3 pixels the analysis is skipped and IsSkin is true, leaving the verdict
// to the other validators.
func (SkinTextureAnalyzer) Analyze(p *l1frames.Patch) SkinTexture {
	if !p.Valid() || p.Width < 3 || p.Height < 3 {
		return SkinTexture{IsSkin: true}
	}
	t := SkinTexture{
		Evaluated:         true,
		Roughness:         roughness(p),
		GradientVariation: gradientVariation(p),
		PoreDensity:       poreDensity(p),
		Irregularity:      irregularity(p),
	}
	t.IsSkin = classifySkin(t)
	return t
}

func classifySkin(t SkinTexture) bool {
	return SkinRoughnessRange.Contains(t.Roughness) &&
		SkinGradientRange.Contains(t.GradientVariation) &&
		SkinPoreDensityRange.Contains(t.PoreDensity) &&
		SkinIrregularityRange.Contains(t.Irregularity)
}

var neighbours8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// roughness is the mean absolute 4-neighbour Laplacian over interior pixels,
// scaled to [0, 1] by the 8-bit range.
func roughness(p *l1frames.Patch) float64 {
	var sum float64
	n := 0
	for y := 1; y < p.Height-1; y++ {
		for x := 1; x < p.Width-1; x++ {
			lap := p.At(x-1, y) + p.At(x+1, y) + p.At(x, y-1) + p.At(x, y+1) - 4*p.At(x, y)
			sum += math.Abs(lap)
			n++
		}
	}
	return sum / float64(n) / 255
}

// gradientVariation is the mean, over interior pixels, of the spread between
// the strongest and weakest of the eight directional gradients.
func gradientVariation(p *l1frames.Patch) float64 {
	var sum float64
	n := 0
	for y := 1; y < p.Height-1; y++ {
		for x := 1; x < p.Width-1; x++ {
			c := p.At(x, y)
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, d := range neighbours8 {
				g := math.Abs(p.At(x+d[0], y+d[1]) - c)
				lo = math.Min(lo, g)
				hi = math.Max(hi, g)
			}
			sum += hi - lo
			n++
		}
	}
	return sum / float64(n) / 255
}

// poreDensity is the fraction of interior pixels that are strict local
// minima of their 8-neighbourhood.
func poreDensity(p *l1frames.Patch) float64 {
	minima := 0
	n := 0
	for y := 1; y < p.Height-1; y++ {
		for x := 1; x < p.Width-1; x++ {
			c := p.At(x, y)
			isMin := true
			for _, d := range neighbours8 {
				if p.At(x+d[0], y+d[1]) <= c {
					isMin = false
					break
				}
			}
			if isMin {
				minima++
			}
			n++
		}
	}
	return float64(minima) / float64(n)
}

// irregularity is the coefficient of variation of the cell means of a
// coarse grid laid over the patch.
func irregularity(p *l1frames.Patch) float64 {
	gx := min(irregularityGrid, p.Width)
	gy := min(irregularityGrid, p.Height)
	means := make([]float64, 0, gx*gy)
	for j := 0; j < gy; j++ {
		y0, y1 := j*p.Height/gy, (j+1)*p.Height/gy
		for i := 0; i < gx; i++ {
			x0, x1 := i*p.Width/gx, (i+1)*p.Width/gx
			var sum float64
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					sum += p.At(x, y)
				}
			}
			means = append(means, sum/float64((y1-y0)*(x1-x0)))
		}
	}
	return variation(means)
}
