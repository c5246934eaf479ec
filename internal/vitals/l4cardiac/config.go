package l4cardiac

import (
	"fmt"
	"time"

	"github.com/banshee-data/vitals.report/internal/config"
)

// Fixed operational bounds.
const (
	// RRCapacity is the length of the R-R interval series.
	RRCapacity = 20
	// SpectralMinBPM and SpectralMaxBPM bound the spectral peak search.
	SpectralMinBPM = 45.0
	SpectralMaxBPM = 180.0
	// AcceptMinBPM and AcceptMaxBPM are the exclusive bounds for a candidate
	// to update the held BPM.
	AcceptMinBPM = 20.0
	AcceptMaxBPM = 260.0
	// TimeDomainWindow is the number of recent R-R intervals averaged for a
	// time-domain candidate.
	TimeDomainWindow = 5
	// ArrhythmiaWindow is the R-R window analysed for arrhythmia.
	ArrhythmiaWindow = 5
)

// Config parameterises the cardiac layer.
type Config struct {
	SampleRateHz           float64       // Assumed frame rate of the sample stream (default: 30)
	PeakThreshold          float64       // Normalised value a peak must exceed (default: 0.3)
	RefractoryPeriod       time.Duration // Minimum spacing of declared peaks (default: 500ms)
	BPMMinConfidence       float64       // Minimum candidate confidence (default: 0.25)
	SpectralWindow         int           // Samples per spectral estimate (default: 256)
	SpectralMagnitudeFloor float64       // Peak magnitude below which no estimate is made (default: 0.1)
	LearningPeriod         time.Duration // Arrhythmia learning phase (default: 3s)
	RMSSDThresholdMs       float64       // RMSSD above which variability is abnormal (default: 25)
	PrematureBeatFraction  float64       // Deviation from the window mean flagging a premature beat (default: 0.25)
}

// DefaultConfig returns a Config loaded from the canonical tuning defaults
// file (config/tuning.defaults.json).
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		SampleRateHz:           cfg.GetSampleRateHz(),
		PeakThreshold:          cfg.GetPeakThreshold(),
		RefractoryPeriod:       cfg.GetRefractoryPeriod(),
		BPMMinConfidence:       cfg.GetBPMMinConfidence(),
		SpectralWindow:         cfg.GetSpectralWindow(),
		SpectralMagnitudeFloor: cfg.GetSpectralMagnitudeFloor(),
		LearningPeriod:         cfg.GetLearningPeriod(),
		RMSSDThresholdMs:       cfg.GetRMSSDThresholdMs(),
		PrematureBeatFraction:  cfg.GetPrematureBeatFraction(),
	}
}

// Validate checks the configuration for construction-time invariants.
func (c Config) Validate() error {
	if c.SampleRateHz <= 0 {
		return fmt.Errorf("SampleRateHz must be positive, got %f", c.SampleRateHz)
	}
	if c.RefractoryPeriod < 0 {
		return fmt.Errorf("RefractoryPeriod must be non-negative, got %v", c.RefractoryPeriod)
	}
	if c.BPMMinConfidence < 0 || c.BPMMinConfidence > 1 {
		return fmt.Errorf("BPMMinConfidence must be in [0, 1], got %f", c.BPMMinConfidence)
	}
	if c.SpectralWindow < 16 || c.SpectralWindow%2 != 0 {
		return fmt.Errorf("SpectralWindow must be an even count of at least 16, got %d", c.SpectralWindow)
	}
	maxBin := SpectralMaxBPM / 60 * float64(c.SpectralWindow) / c.SampleRateHz
	if maxBin >= float64(c.SpectralWindow/2) {
		return fmt.Errorf("SampleRateHz %f too low to resolve %v BPM", c.SampleRateHz, SpectralMaxBPM)
	}
	if c.LearningPeriod < 0 {
		return fmt.Errorf("LearningPeriod must be non-negative, got %v", c.LearningPeriod)
	}
	if c.RMSSDThresholdMs <= 0 {
		return fmt.Errorf("RMSSDThresholdMs must be positive, got %f", c.RMSSDThresholdMs)
	}
	if c.PrematureBeatFraction <= 0 {
		return fmt.Errorf("PrematureBeatFraction must be positive, got %f", c.PrematureBeatFraction)
	}
	return nil
}
