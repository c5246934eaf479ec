package l3validity

import (
	"fmt"
	"time"

	"github.com/banshee-data/vitals.report/internal/config"
)

// NoiseConfig parameterises the noise floor calibrator.
type NoiseConfig struct {
	CalibrationFrames    int     // Frames sampled before the floor is fixed (default: 30)
	Percentile           float64 // Quantile of corner luminance taken as noise (default: 0.15)
	ProvisionalThreshold float64 // Threshold used while calibrating (default: 45)
	Multiplier           float64 // Calibrated threshold = Multiplier x noise (default: 2.5)
	AbsoluteFloor        float64 // Lower bound on the calibrated threshold (default: 50)
}

// ArtificialConfig parameterises the artificial-source detector.
type ArtificialConfig struct {
	HistorySize int // Red-intensity history length (default: 15)

	LEDChannelMax   float64 // Any channel above this may be an LED (default: 180)
	LEDSpreadMax    float64 // RGB spread below this looks like an LED (default: 30)
	LEDStabilityMin float64 // Region stability above this looks like an LED (default: 0.95)

	BalancedBrightnessMin float64 // Bright, balanced white light (default: 200)

	MetalBrightnessMin float64 // Reflective surface brightness (default: 160)
	MetalTextureMax    float64 // Reflective surface texture ceiling (default: 0.05)
	MetalSpreadMax     float64 // Reflective surface RGB spread ceiling (default: 25)

	SkinRedMin   float64 // Minimum red mean for skin (default: 40)
	SkinRatioMin float64 // Minimum red/green and red/blue ratio for skin (default: 1.05)

	MinVariation    float64 // CV below this over the history is abnormally stable (default: 0.005)
	JumpMultiplier  float64 // A delta above this multiple of the mean delta is a jump (default: 3)
	JumpFraction    float64 // Fraction of jump deltas that flags the source (default: 0.3)
	SaturationLevel float64 // Any channel at or above this is saturated (default: 250)
	WeakLevel       float64 // Red mean below this is too weak (default: 20)
}

// GateConfig is the veto gate threshold table.
type GateConfig struct {
	MinIntensity            float64
	MaxIntensity            float64
	MinRedDominance         float64
	MaxRedDominance         float64
	MinHemoglobinRatio      float64
	MaxHemoglobinRatio      float64
	MinHemoglobinScore      float64
	MinStability            float64
	MinTexture              float64
	MaxBrightnessUniformity float64
	MinTemporalConsistency  float64
	VetoMinHistory          int // Outcomes required before the signature, texture and artificial vetoes apply
	HistorySize             int // Rolling pass/fail history length
}

// DetectionConfig controls debouncing of the per-frame verdict.
type DetectionConfig struct {
	ConfirmFrames int           // Consecutive valid frames to declare a finger (default: 3)
	ReleaseFrames int           // Consecutive invalid frames to drop it (default: 6)
	Timeout       time.Duration // Maximum gap since the last valid frame (default: 1s)
}

// Config bundles the layer's configuration.
type Config struct {
	Noise      NoiseConfig
	Artificial ArtificialConfig
	Gate       GateConfig
	Detection  DetectionConfig
}

// DefaultConfig returns a Config loaded from the canonical tuning defaults
// file (config/tuning.defaults.json).
// Panics if the file cannot be found; intended for tests and binaries that
// have already validated config availability.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Noise: NoiseConfig{
			CalibrationFrames:    cfg.GetNoiseCalibrationFrames(),
			Percentile:           cfg.GetNoisePercentile(),
			ProvisionalThreshold: cfg.GetNoiseProvisionalThreshold(),
			Multiplier:           cfg.GetNoiseMultiplier(),
			AbsoluteFloor:        cfg.GetNoiseAbsoluteFloor(),
		},
		Artificial: ArtificialConfig{
			HistorySize:           cfg.GetArtificialHistorySize(),
			LEDChannelMax:         cfg.GetArtificialLEDChannelMax(),
			LEDSpreadMax:          cfg.GetArtificialLEDSpreadMax(),
			LEDStabilityMin:       cfg.GetArtificialLEDStabilityMin(),
			BalancedBrightnessMin: cfg.GetArtificialBalancedBrightnessMin(),
			MetalBrightnessMin:    cfg.GetArtificialMetalBrightnessMin(),
			MetalTextureMax:       cfg.GetArtificialMetalTextureMax(),
			MetalSpreadMax:        cfg.GetArtificialMetalSpreadMax(),
			SkinRedMin:            cfg.GetArtificialSkinRedMin(),
			SkinRatioMin:          cfg.GetArtificialSkinRatioMin(),
			MinVariation:          cfg.GetArtificialMinVariation(),
			JumpMultiplier:        cfg.GetArtificialJumpMultiplier(),
			JumpFraction:          cfg.GetArtificialJumpFraction(),
			SaturationLevel:       cfg.GetArtificialSaturationLevel(),
			WeakLevel:             cfg.GetArtificialWeakLevel(),
		},
		Gate: GateConfig{
			MinIntensity:            cfg.GetGateMinIntensity(),
			MaxIntensity:            cfg.GetGateMaxIntensity(),
			MinRedDominance:         cfg.GetGateMinRedDominance(),
			MaxRedDominance:         cfg.GetGateMaxRedDominance(),
			MinHemoglobinRatio:      cfg.GetGateMinHemoglobinRatio(),
			MaxHemoglobinRatio:      cfg.GetGateMaxHemoglobinRatio(),
			MinHemoglobinScore:      cfg.GetGateMinHemoglobinScore(),
			MinStability:            cfg.GetGateMinStability(),
			MinTexture:              cfg.GetGateMinTexture(),
			MaxBrightnessUniformity: cfg.GetGateMaxBrightnessUniformity(),
			MinTemporalConsistency:  cfg.GetGateMinTemporalConsistency(),
			VetoMinHistory:          cfg.GetGateVetoMinHistory(),
			HistorySize:             cfg.GetGateHistorySize(),
		},
		Detection: DetectionConfig{
			ConfirmFrames: cfg.GetDetectionConfirmFrames(),
			ReleaseFrames: cfg.GetDetectionReleaseFrames(),
			Timeout:       cfg.GetDetectionTimeout(),
		},
	}
}

// Validate checks the configuration for construction-time invariants.
func (c Config) Validate() error {
	n := c.Noise
	if n.CalibrationFrames <= 0 {
		return fmt.Errorf("Noise.CalibrationFrames must be positive, got %d", n.CalibrationFrames)
	}
	if n.Percentile < 0 || n.Percentile > 1 {
		return fmt.Errorf("Noise.Percentile must be in [0, 1], got %f", n.Percentile)
	}
	if n.Multiplier <= 0 {
		return fmt.Errorf("Noise.Multiplier must be positive, got %f", n.Multiplier)
	}
	if c.Artificial.HistorySize < 2 {
		return fmt.Errorf("Artificial.HistorySize must be at least 2, got %d", c.Artificial.HistorySize)
	}
	if c.Artificial.JumpFraction < 0 || c.Artificial.JumpFraction > 1 {
		return fmt.Errorf("Artificial.JumpFraction must be in [0, 1], got %f", c.Artificial.JumpFraction)
	}
	g := c.Gate
	if g.MinIntensity >= g.MaxIntensity {
		return fmt.Errorf("Gate intensity band is empty: [%f, %f]", g.MinIntensity, g.MaxIntensity)
	}
	if g.MinRedDominance >= g.MaxRedDominance {
		return fmt.Errorf("Gate red dominance band is empty: [%f, %f]", g.MinRedDominance, g.MaxRedDominance)
	}
	if g.MinHemoglobinRatio >= g.MaxHemoglobinRatio {
		return fmt.Errorf("Gate hemoglobin ratio band is empty: [%f, %f]", g.MinHemoglobinRatio, g.MaxHemoglobinRatio)
	}
	if g.HistorySize <= 0 {
		return fmt.Errorf("Gate.HistorySize must be positive, got %d", g.HistorySize)
	}
	if g.VetoMinHistory < 0 || g.VetoMinHistory > g.HistorySize {
		return fmt.Errorf("Gate.VetoMinHistory must be in [0, %d], got %d", g.HistorySize, g.VetoMinHistory)
	}
	d := c.Detection
	if d.ConfirmFrames <= 0 || d.ReleaseFrames <= 0 {
		return fmt.Errorf("Detection frame counts must be positive, got confirm=%d release=%d", d.ConfirmFrames, d.ReleaseFrames)
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("Detection.Timeout must be positive, got %v", d.Timeout)
	}
	return nil
}
