package l3validity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// NoiseFloorCalibrator learns the ambient noise level from image-corner
// luminance over the first frames of a session. The transition from
// calibrating to calibrated happens once and holds until Reset.
type NoiseFloorCalibrator struct {
	cfg NoiseConfig

	samples    []float64
	frames     int
	calibrated bool
	noise      float64
}

// NewNoiseFloorCalibrator returns a calibrator in the calibrating state.
func NewNoiseFloorCalibrator(cfg NoiseConfig) *NoiseFloorCalibrator {
	return &NoiseFloorCalibrator{cfg: cfg}
}

// Observe records one frame of corner luminance. It reports true on the
// frame that completes calibration and false otherwise.
func (c *NoiseFloorCalibrator) Observe(corners []float64) bool {
	if c.calibrated {
		return false
	}
	c.samples = append(c.samples, corners...)
	c.frames++
	if c.frames < c.cfg.CalibrationFrames {
		return false
	}

	if len(c.samples) == 0 {
		opsf("noise floor calibration saw no corner samples in %d frames; using absolute floor", c.frames)
	} else {
		sorted := append([]float64(nil), c.samples...)
		sort.Float64s(sorted)
		c.noise = stat.Quantile(c.cfg.Percentile, stat.Empirical, sorted, nil)
	}
	c.calibrated = true
	c.samples = nil
	diagf("noise floor calibrated after %d frames: noise=%.2f threshold=%.2f",
		c.frames, c.noise, c.Threshold(true))
	return true
}

// IsCalibrated reports whether the calibration window has completed.
func (c *NoiseFloorCalibrator) IsCalibrated() bool { return c.calibrated }

// NoiseFloor returns the calibrated environmental noise, or 0 while
// calibrating.
func (c *NoiseFloorCalibrator) NoiseFloor() float64 { return c.noise }

// Threshold returns the intensity a signal must exceed. With adaptive
// disabled, or before calibration completes, the provisional threshold
// applies.
func (c *NoiseFloorCalibrator) Threshold(adaptive bool) float64 {
	if !c.calibrated || !adaptive {
		return c.cfg.ProvisionalThreshold
	}
	return math.Max(c.cfg.Multiplier*c.noise, c.cfg.AbsoluteFloor)
}

// IsAboveNoiseFloor reports whether intensity clears the adaptive threshold.
func (c *NoiseFloorCalibrator) IsAboveNoiseFloor(intensity float64) bool {
	return intensity > c.Threshold(true)
}

// Reset returns the calibrator to its post-construction state.
func (c *NoiseFloorCalibrator) Reset() {
	c.samples = nil
	c.frames = 0
	c.calibrated = false
	c.noise = 0
}
