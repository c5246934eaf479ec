package l2signal

import (
	"github.com/banshee-data/vitals.report/internal/vitals/ring"
	"gonum.org/v1/gonum/stat"
)

// DefaultConditionerWindow is the moving-average length applied to raw
// samples.
const DefaultConditionerWindow = 3

// Model is an optional per-sample transform applied after the moving
// average. It is only run while the performance level enables model
// filtering.
type Model interface {
	Apply(v float64) float64
}

// ModelFunc adapts an ordinary function to the Model interface.
type ModelFunc func(float64) float64

// Apply calls f(v).
func (f ModelFunc) Apply(v float64) float64 { return f(v) }

// Conditioner smooths raw samples with a moving average.
type Conditioner struct {
	window *ring.Buffer[float64]
}

// NewConditioner returns a Conditioner averaging over window samples.
func NewConditioner(window int) *Conditioner {
	if window < 1 {
		window = DefaultConditionerWindow
	}
	return &Conditioner{window: ring.New[float64](window)}
}

// Filter pushes v and returns the mean of the most recent samples, up to the
// configured window.
func (c *Conditioner) Filter(v float64) float64 {
	c.window.Push(v)
	return stat.Mean(c.window.Values(), nil)
}

// Reset discards the averaging window.
func (c *Conditioner) Reset() {
	c.window.Clear()
}
