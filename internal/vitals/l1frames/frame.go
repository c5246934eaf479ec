package l1frames

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedFrame is returned when a frame fails structural validation.
var ErrMalformedFrame = errors.New("malformed frame")

// ChannelStats are the per-frame channel summaries produced by the capture
// layer. Channel means are on the 0-255 scale; TextureScore and Stability
// are normalised to [0, 1].
type ChannelStats struct {
	MeanRed      float64
	MeanGreen    float64
	MeanBlue     float64
	TextureScore float64 // Local intensity variation across the ROI
	Stability    float64 // Frame-to-frame stability of the ROI (1 = static)
}

// Brightness returns the mean of the three channel means.
func (s ChannelStats) Brightness() float64 {
	return (s.MeanRed + s.MeanGreen + s.MeanBlue) / 3
}

// MaxChannel returns the largest channel mean.
func (s ChannelStats) MaxChannel() float64 {
	return math.Max(s.MeanRed, math.Max(s.MeanGreen, s.MeanBlue))
}

// MinChannel returns the smallest channel mean.
func (s ChannelStats) MinChannel() float64 {
	return math.Min(s.MeanRed, math.Min(s.MeanGreen, s.MeanBlue))
}

// Spread returns the difference between the brightest and dimmest channel.
func (s ChannelStats) Spread() float64 {
	return s.MaxChannel() - s.MinChannel()
}

// Region is the region-of-interest geometry in sensor pixels.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RRIntervals carries beat intervals computed outside the pipeline.
type RRIntervals struct {
	Intervals  []float64 // Milliseconds, oldest first
	LastPeakMs *int64    // Timestamp of the most recent beat, if known
}

// Frame is one tick of pipeline input.
type Frame struct {
	TimestampMs int64
	RawValue    float64
	Stats       ChannelStats
	ROI         Region

	// Corners holds pre-sampled corner luminance for noise calibration when
	// the capture layer does not ship a patch.
	Corners []float64

	// Patch is an optional downsampled luminance grid of the ROI. When
	// present it feeds skin-texture analysis and corner sampling.
	Patch *Patch

	// RR is set when beat intervals are sourced externally.
	RR *RRIntervals
}

// CornerLuminance returns the luminance samples used for noise calibration:
// the patch corners when a patch is available, otherwise Corners.
func (f Frame) CornerLuminance() []float64 {
	if f.Patch != nil && f.Patch.Valid() {
		return f.Patch.CornerSamples(CornerFraction, CornerStride)
	}
	return f.Corners
}

// Validate checks the structural invariants of a frame.
func (f Frame) Validate() error {
	values := map[string]float64{
		"raw":       f.RawValue,
		"r":         f.Stats.MeanRed,
		"g":         f.Stats.MeanGreen,
		"b":         f.Stats.MeanBlue,
		"texture":   f.Stats.TextureScore,
		"stability": f.Stats.Stability,
	}
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrMalformedFrame, name)
		}
	}
	if f.Stats.MeanRed < 0 || f.Stats.MeanGreen < 0 || f.Stats.MeanBlue < 0 {
		return fmt.Errorf("%w: negative channel mean", ErrMalformedFrame)
	}
	if f.TimestampMs < 0 {
		return fmt.Errorf("%w: negative timestamp %d", ErrMalformedFrame, f.TimestampMs)
	}
	if f.Patch != nil && !f.Patch.Valid() {
		return fmt.Errorf("%w: patch is %dx%d with %d samples",
			ErrMalformedFrame, f.Patch.Width, f.Patch.Height, len(f.Patch.Luma))
	}
	if f.RR != nil {
		for _, iv := range f.RR.Intervals {
			if iv <= 0 || math.IsNaN(iv) || math.IsInf(iv, 0) {
				return fmt.Errorf("%w: invalid R-R interval %v", ErrMalformedFrame, iv)
			}
		}
	}
	return nil
}
