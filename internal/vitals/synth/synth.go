// Package synth generates deterministic frame-metric streams for
// development, tooling and tests: a pulsing fingertip, an LED, a metal
// surface and an uncovered (dark) camera.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
)

// Kind selects the simulated scene.
type Kind string

// Scenes.
const (
	KindFinger Kind = "finger"
	KindLED    Kind = "led"
	KindMetal  Kind = "metal"
	KindDark   Kind = "dark"
)

// Kinds lists every scene in display order.
var Kinds = []Kind{KindFinger, KindLED, KindMetal, KindDark}

// ParseKind maps a scene name to its Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown scene %q (want finger, led, metal or dark)", s)
}

// Config parameterises a Generator.
type Config struct {
	Kind      Kind
	RateHz    float64 // Frame rate (default: 30)
	BPM       float64 // Pulse rate of the finger scene (default: 72)
	Amplitude float64 // Red-channel pulse amplitude (default: 10)
	Noise     float64 // Uniform noise half-width on the red channel (default: 0.5)
	Seed      uint64
	StartMs   int64

	// PrematureEvery shortens every Nth cardiac cycle to 60% of its length.
	// Zero disables premature beats.
	PrematureEvery int
}

// DefaultConfig returns the defaults for kind.
func DefaultConfig(kind Kind) Config {
	return Config{
		Kind:      kind,
		RateHz:    30,
		BPM:       72,
		Amplitude: 10,
		Noise:     0.5,
		Seed:      1,
	}
}

// Validate checks the generator configuration.
func (c Config) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	if c.RateHz <= 0 {
		return fmt.Errorf("RateHz must be positive, got %f", c.RateHz)
	}
	if c.Kind == KindFinger && (c.BPM < 20 || c.BPM > 260) {
		return fmt.Errorf("BPM must be in [20, 260], got %f", c.BPM)
	}
	if c.Amplitude < 0 || c.Noise < 0 {
		return fmt.Errorf("Amplitude and Noise must be non-negative, got %f and %f", c.Amplitude, c.Noise)
	}
	if c.PrematureEvery < 0 {
		return fmt.Errorf("PrematureEvery must be non-negative, got %d", c.PrematureEvery)
	}
	return nil
}

// prematureScale is the length of a premature cycle relative to a normal one.
const prematureScale = 0.6

// Generator produces one frame per call to Next.
type Generator struct {
	cfg   Config
	rng   *rand.Rand
	i     int64
	phase float64
	cycle int
}

// New validates cfg and returns a generator positioned at the first frame.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid synth config: %w", err)
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Next returns the next frame and advances time.
func (g *Generator) Next() l1frames.Frame {
	ts := g.cfg.StartMs + int64(math.Round(float64(g.i)*1000/g.cfg.RateHz))
	g.i++

	var f l1frames.Frame
	switch g.cfg.Kind {
	case KindFinger:
		f = g.finger()
	case KindLED:
		f = g.flat(l1frames.ChannelStats{MeanRed: 200, MeanGreen: 195, MeanBlue: 190, TextureScore: 0.2, Stability: 0.99})
	case KindMetal:
		f = g.flat(l1frames.ChannelStats{MeanRed: 180, MeanGreen: 175, MeanBlue: 170, TextureScore: 0.02, Stability: 0.9})
	case KindDark:
		f = g.flat(l1frames.ChannelStats{MeanRed: 10, MeanGreen: 8, MeanBlue: 8, TextureScore: 0.05, Stability: 0.5})
	}
	f.TimestampMs = ts
	f.Corners = g.corners()
	return f
}

// Frames returns the next n frames.
func (g *Generator) Frames(n int) []l1frames.Frame {
	out := make([]l1frames.Frame, n)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}

func (g *Generator) finger() l1frames.Frame {
	step := g.cfg.BPM / 60 / g.cfg.RateHz
	if g.cfg.PrematureEvery > 0 && g.cycle%g.cfg.PrematureEvery == g.cfg.PrematureEvery-1 {
		step /= prematureScale
	}
	g.phase += step
	if g.phase >= 1 {
		g.phase -= 1
		g.cycle++
	}

	red := 200 + g.cfg.Amplitude*pulse(g.phase) + g.noise()
	return l1frames.Frame{
		RawValue: red / 255,
		Stats: l1frames.ChannelStats{
			MeanRed:      red,
			MeanGreen:    50,
			MeanBlue:     40,
			TextureScore: 0.2,
			Stability:    0.8,
		},
	}
}

func (g *Generator) flat(s l1frames.ChannelStats) l1frames.Frame {
	s.MeanRed += g.noise()
	return l1frames.Frame{RawValue: s.MeanRed / 255, Stats: s}
}

// corners returns a handful of dark-pixel luminance readings around 10.
func (g *Generator) corners() []float64 {
	out := make([]float64, 4)
	for i := range out {
		out[i] = 10 + 4*(g.rng.Float64()-0.5)
	}
	return out
}

func (g *Generator) noise() float64 {
	if g.cfg.Noise == 0 {
		return 0
	}
	return g.cfg.Noise * (2*g.rng.Float64() - 1)
}

// pulse is a single PPG cycle over phase t in [0, 1): a systolic peak and a
// smaller dicrotic wave, scaled to roughly [-1, 1].
func pulse(t float64) float64 {
	w := gauss(t, 0.2, 0.1) + 0.25*gauss(t, 0.55, 0.08)
	return 2*w - 1
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}
