package l4cardiac

import (
	"math"

	"github.com/banshee-data/vitals.report/internal/vitals/ring"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SpO2 estimation parameters.
const (
	spo2Window          = 60
	spo2MinSamples      = 30
	spo2SmoothingWindow = 10
	spo2Ceiling         = 98
	spo2Intercept       = 98.0
	spo2Slope           = 15.0
	spo2Calibration     = 1.02

	minPerfusionIndex  = 0.05
	highPerfusionIndex = 0.15
	lowPerfusionIndex  = 0.08

	// spo2StaleTicks is how many consecutive fallback ticks the last valid
	// reading survives before the estimate drops to unavailable.
	spo2StaleTicks = 150
)

// SpO2Result is one saturation estimate.
type SpO2Result struct {
	Value          int // Percent; 0 when unavailable
	PerfusionIndex float64
	Fallback       bool // Value derives from the last valid reading
}

// SpO2Estimator computes a ratiometric saturation estimate from the
// perfusion index of the filtered signal.
type SpO2Estimator struct {
	samples  *ring.Buffer[float64]
	smoothed *ring.Buffer[float64]

	lastValid  int
	hasValid   bool
	staleTicks int
}

// NewSpO2Estimator returns an estimator with no history.
func NewSpO2Estimator() *SpO2Estimator {
	return &SpO2Estimator{
		samples:  ring.New[float64](spo2Window),
		smoothed: ring.New[float64](spo2SmoothingWindow),
	}
}

// Add buffers one filtered sample.
func (e *SpO2Estimator) Add(v float64) { e.samples.Push(v) }

// Estimate returns the current saturation estimate.
func (e *SpO2Estimator) Estimate() SpO2Result {
	if e.samples.Len() < spo2MinSamples {
		return e.fallback(1, 0)
	}
	x := e.samples.Values()
	dc := stat.Mean(x, nil)
	if dc <= 0 {
		return e.fallback(2, 0)
	}
	pi := (floats.Max(x) - floats.Min(x)) / dc
	if pi < minPerfusionIndex {
		return e.fallback(2, pi)
	}

	r := pi / spo2Calibration
	raw := int(math.Round(spo2Intercept - spo2Slope*r))
	switch {
	case pi > highPerfusionIndex:
		raw++
	case pi < lowPerfusionIndex:
		raw--
	}
	raw = min(raw, spo2Ceiling)

	e.smoothed.Push(float64(raw))
	value := int(math.Round(stat.Mean(e.smoothed.Values(), nil)))
	e.lastValid = value
	e.hasValid = true
	e.staleTicks = 0
	return SpO2Result{Value: value, PerfusionIndex: pi}
}

// Hold returns the decayed last valid reading without computing a fresh
// estimate. It is used while no finger is present.
func (e *SpO2Estimator) Hold() SpO2Result {
	return e.fallback(2, 0)
}

// fallback returns the last valid reading less penalty. Penalties do not
// compound across ticks; the reading expires after spo2StaleTicks.
func (e *SpO2Estimator) fallback(penalty int, pi float64) SpO2Result {
	if !e.hasValid {
		return SpO2Result{PerfusionIndex: pi}
	}
	e.staleTicks++
	if e.staleTicks > spo2StaleTicks {
		e.hasValid = false
		e.lastValid = 0
		return SpO2Result{PerfusionIndex: pi}
	}
	return SpO2Result{Value: max(0, e.lastValid-penalty), PerfusionIndex: pi, Fallback: true}
}

// LastValid returns the most recent freshly computed estimate.
func (e *SpO2Estimator) LastValid() (int, bool) { return e.lastValid, e.hasValid }

// Reset clears all history.
func (e *SpO2Estimator) Reset() {
	e.samples.Clear()
	e.smoothed.Clear()
	e.lastValid = 0
	e.hasValid = false
	e.staleTicks = 0
}
