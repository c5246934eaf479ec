package l5pressure

import (
	"fmt"

	"github.com/banshee-data/vitals.report/internal/config"
)

// Config parameterises the blood-pressure estimator.
type Config struct {
	SampleRateHz        float64 // Assumed sample rate for PTT scaling (default: 30)
	ConfidenceThreshold float64 // Results above this become the fallback (default: 0.6)
	BufferSize          int     // Maximum samples analysed per estimate (default: 300)
}

// DefaultConfig returns a Config loaded from the canonical tuning defaults
// file (config/tuning.defaults.json).
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig. BufferSize is
// a fixed operational default.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		SampleRateHz:        cfg.GetSampleRateHz(),
		ConfidenceThreshold: cfg.GetBPConfidenceThreshold(),
		BufferSize:          300,
	}
}

// Validate checks the configuration for construction-time invariants.
func (c Config) Validate() error {
	if c.SampleRateHz <= 0 {
		return fmt.Errorf("SampleRateHz must be positive, got %f", c.SampleRateHz)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("ConfidenceThreshold must be in [0, 1], got %f", c.ConfidenceThreshold)
	}
	if c.BufferSize < MinSamples {
		return fmt.Errorf("BufferSize must be at least %d, got %d", MinSamples, c.BufferSize)
	}
	return nil
}
