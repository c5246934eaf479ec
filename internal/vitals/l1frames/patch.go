package l1frames

import "math"

// Corner sampling parameters for noise-floor calibration: each corner region
// spans CornerFraction of the patch width and height and is sampled every
// CornerStride pixels.
const (
	CornerFraction = 0.10
	CornerStride   = 2
)

// Patch is a row-major luminance grid (0-255) covering the ROI.
type Patch struct {
	Width  int
	Height int
	Luma   []float64
}

// Valid reports whether the patch dimensions match its data.
func (p *Patch) Valid() bool {
	return p != nil && p.Width > 0 && p.Height > 0 && len(p.Luma) == p.Width*p.Height
}

// At returns the luminance at column x, row y.
func (p *Patch) At(x, y int) float64 {
	return p.Luma[y*p.Width+x]
}

// CornerSamples collects strided luminance samples from the four corner
// regions of the patch.
func (p *Patch) CornerSamples(fraction float64, stride int) []float64 {
	if !p.Valid() {
		return nil
	}
	if stride < 1 {
		stride = 1
	}
	cw := int(math.Max(1, math.Round(float64(p.Width)*fraction)))
	ch := int(math.Max(1, math.Round(float64(p.Height)*fraction)))

	origins := [4][2]int{
		{0, 0},
		{p.Width - cw, 0},
		{0, p.Height - ch},
		{p.Width - cw, p.Height - ch},
	}
	out := make([]float64, 0, 4*((cw+stride-1)/stride)*((ch+stride-1)/stride))
	for _, o := range origins {
		for y := o[1]; y < o[1]+ch; y += stride {
			for x := o[0]; x < o[0]+cw; x += stride {
				out = append(out, p.At(x, y))
			}
		}
	}
	return out
}
