// Package config holds the tuning and calibration table for the vitals
// pipeline. The JSON file at DefaultConfigPath is the single source of truth
// for every threshold that trades sensitivity against specificity.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// Every field is optional; the Get* accessors fall back to the shipped
// defaults so partial files are safe.
type TuningConfig struct {
	// Noise floor
	NoiseCalibrationFrames    *int     `json:"noise_calibration_frames,omitempty"`
	NoisePercentile           *float64 `json:"noise_percentile,omitempty"`
	NoiseProvisionalThreshold *float64 `json:"noise_provisional_threshold,omitempty"`
	NoiseMultiplier           *float64 `json:"noise_multiplier,omitempty"`
	NoiseAbsoluteFloor        *float64 `json:"noise_absolute_floor,omitempty"`

	// Artificial-source detector
	ArtificialHistorySize           *int     `json:"artificial_history_size,omitempty"`
	ArtificialLEDChannelMax         *float64 `json:"artificial_led_channel_max,omitempty"`
	ArtificialLEDSpreadMax          *float64 `json:"artificial_led_spread_max,omitempty"`
	ArtificialLEDStabilityMin       *float64 `json:"artificial_led_stability_min,omitempty"`
	ArtificialBalancedBrightnessMin *float64 `json:"artificial_balanced_brightness_min,omitempty"`
	ArtificialMetalBrightnessMin    *float64 `json:"artificial_metal_brightness_min,omitempty"`
	ArtificialMetalTextureMax       *float64 `json:"artificial_metal_texture_max,omitempty"`
	ArtificialMetalSpreadMax        *float64 `json:"artificial_metal_spread_max,omitempty"`
	ArtificialSkinRedMin            *float64 `json:"artificial_skin_red_min,omitempty"`
	ArtificialSkinRatioMin          *float64 `json:"artificial_skin_ratio_min,omitempty"`
	ArtificialMinVariation          *float64 `json:"artificial_min_variation,omitempty"`
	ArtificialJumpMultiplier        *float64 `json:"artificial_jump_multiplier,omitempty"`
	ArtificialJumpFraction          *float64 `json:"artificial_jump_fraction,omitempty"`
	ArtificialSaturationLevel       *float64 `json:"artificial_saturation_level,omitempty"`
	ArtificialWeakLevel             *float64 `json:"artificial_weak_level,omitempty"`

	// Veto gate
	GateMinIntensity            *float64 `json:"gate_min_intensity,omitempty"`
	GateMaxIntensity            *float64 `json:"gate_max_intensity,omitempty"`
	GateMinRedDominance         *float64 `json:"gate_min_red_dominance,omitempty"`
	GateMaxRedDominance         *float64 `json:"gate_max_red_dominance,omitempty"`
	GateMinHemoglobinRatio      *float64 `json:"gate_min_hemoglobin_ratio,omitempty"`
	GateMaxHemoglobinRatio      *float64 `json:"gate_max_hemoglobin_ratio,omitempty"`
	GateMinHemoglobinScore      *float64 `json:"gate_min_hemoglobin_score,omitempty"`
	GateMinStability            *float64 `json:"gate_min_stability,omitempty"`
	GateMinTexture              *float64 `json:"gate_min_texture,omitempty"`
	GateMaxBrightnessUniformity *float64 `json:"gate_max_brightness_uniformity,omitempty"`
	GateMinTemporalConsistency  *float64 `json:"gate_min_temporal_consistency,omitempty"`
	GateVetoMinHistory          *int     `json:"gate_veto_min_history,omitempty"`
	GateHistorySize             *int     `json:"gate_history_size,omitempty"`

	// Detection debounce
	DetectionConfirmFrames *int    `json:"detection_confirm_frames,omitempty"`
	DetectionReleaseFrames *int    `json:"detection_release_frames,omitempty"`
	DetectionTimeout       *string `json:"detection_timeout,omitempty"`        // duration string

	// Heart rate
	SampleRateHz           *float64 `json:"sample_rate_hz,omitempty"`
	PeakThreshold          *float64 `json:"peak_threshold,omitempty"`
	RefractoryPeriod       *string  `json:"refractory_period,omitempty"`        // duration string
	BPMMinConfidence       *float64 `json:"bpm_min_confidence,omitempty"`
	SpectralWindow         *int     `json:"spectral_window,omitempty"`
	SpectralMagnitudeFloor *float64 `json:"spectral_magnitude_floor,omitempty"`

	// Arrhythmia
	LearningPeriod        *string  `json:"learning_period,omitempty"`         // duration string
	RMSSDThresholdMs      *float64 `json:"rmssd_threshold_ms,omitempty"`
	PrematureBeatFraction *float64 `json:"premature_beat_fraction,omitempty"`

	// Blood pressure
	BPConfidenceThreshold *float64 `json:"bp_confidence_threshold,omitempty"`

	// Performance scheduler
	FrameBudget                  *string  `json:"frame_budget,omitempty"`                    // duration string
	TargetFPS                    *float64 `json:"target_fps,omitempty"`
	PerformanceMinHistory        *int     `json:"performance_min_history,omitempty"`
	PerformanceDowngradeDropRate *float64 `json:"performance_downgrade_drop_rate,omitempty"`
	PerformanceUpgradeDropRate   *float64 `json:"performance_upgrade_drop_rate,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/vitals/l3validity/
		"../../../../" + DefaultConfigPath,    // deeper packages
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	for name, v := range map[string]*string{
		"detection_timeout": c.DetectionTimeout,
		"refractory_period": c.RefractoryPeriod,
		"learning_period":   c.LearningPeriod,
		"frame_budget":      c.FrameBudget,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *v)
		}
	}

	for name, v := range map[string]*int{
		"noise_calibration_frames": c.NoiseCalibrationFrames,
		"artificial_history_size":  c.ArtificialHistorySize,
		"gate_history_size":        c.GateHistorySize,
		"detection_confirm_frames": c.DetectionConfirmFrames,
		"detection_release_frames": c.DetectionReleaseFrames,
		"spectral_window":          c.SpectralWindow,
		"performance_min_history":  c.PerformanceMinHistory,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
	}

	for name, v := range map[string]*float64{
		"noise_percentile":                c.NoisePercentile,
		"artificial_led_stability_min":    c.ArtificialLEDStabilityMin,
		"artificial_jump_fraction":        c.ArtificialJumpFraction,
		"gate_min_hemoglobin_score":       c.GateMinHemoglobinScore,
		"gate_max_brightness_uniformity":  c.GateMaxBrightnessUniformity,
		"gate_min_temporal_consistency":   c.GateMinTemporalConsistency,
		"bpm_min_confidence":              c.BPMMinConfidence,
		"premature_beat_fraction":         c.PrematureBeatFraction,
		"bp_confidence_threshold":         c.BPConfidenceThreshold,
		"performance_downgrade_drop_rate": c.PerformanceDowngradeDropRate,
		"performance_upgrade_drop_rate":   c.PerformanceUpgradeDropRate,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}

	if c.SampleRateHz != nil && *c.SampleRateHz <= 0 {
		return fmt.Errorf("sample_rate_hz must be positive, got %f", *c.SampleRateHz)
	}
	if c.TargetFPS != nil && *c.TargetFPS <= 0 {
		return fmt.Errorf("target_fps must be positive, got %f", *c.TargetFPS)
	}
	if c.GetGateMinIntensity() >= c.GetGateMaxIntensity() {
		return fmt.Errorf("gate_min_intensity (%f) must be below gate_max_intensity (%f)",
			c.GetGateMinIntensity(), c.GetGateMaxIntensity())
	}
	if c.GetGateMinRedDominance() >= c.GetGateMaxRedDominance() {
		return fmt.Errorf("gate_min_red_dominance (%f) must be below gate_max_red_dominance (%f)",
			c.GetGateMinRedDominance(), c.GetGateMaxRedDominance())
	}
	if c.GetGateMinHemoglobinRatio() >= c.GetGateMaxHemoglobinRatio() {
		return fmt.Errorf("gate_min_hemoglobin_ratio (%f) must be below gate_max_hemoglobin_ratio (%f)",
			c.GetGateMinHemoglobinRatio(), c.GetGateMaxHemoglobinRatio())
	}
	if c.GetGateVetoMinHistory() > c.GetGateHistorySize() {
		return fmt.Errorf("gate_veto_min_history (%d) cannot exceed gate_history_size (%d)",
			c.GetGateVetoMinHistory(), c.GetGateHistorySize())
	}
	if c.GetPerformanceUpgradeDropRate() > c.GetPerformanceDowngradeDropRate() {
		return fmt.Errorf("performance_upgrade_drop_rate must not exceed performance_downgrade_drop_rate")
	}

	return nil
}

// parseDurationOr parses s, returning fallback for nil, empty or invalid input.
func parseDurationOr(s *string, fallback time.Duration) time.Duration {
	if s == nil || *s == "" {
		return fallback
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return fallback
	}
	return d
}

// GetNoiseCalibrationFrames returns the noise_calibration_frames value or the default.
func (c *TuningConfig) GetNoiseCalibrationFrames() int {
	if c.NoiseCalibrationFrames == nil {
		return 30
	}
	return *c.NoiseCalibrationFrames
}

// GetNoisePercentile returns the noise_percentile value or the default.
func (c *TuningConfig) GetNoisePercentile() float64 {
	if c.NoisePercentile == nil {
		return 0.15
	}
	return *c.NoisePercentile
}

// GetNoiseProvisionalThreshold returns the noise_provisional_threshold value or the default.
func (c *TuningConfig) GetNoiseProvisionalThreshold() float64 {
	if c.NoiseProvisionalThreshold == nil {
		return 45
	}
	return *c.NoiseProvisionalThreshold
}

// GetNoiseMultiplier returns the noise_multiplier value or the default.
func (c *TuningConfig) GetNoiseMultiplier() float64 {
	if c.NoiseMultiplier == nil {
		return 2.5
	}
	return *c.NoiseMultiplier
}

// GetNoiseAbsoluteFloor returns the noise_absolute_floor value or the default.
func (c *TuningConfig) GetNoiseAbsoluteFloor() float64 {
	if c.NoiseAbsoluteFloor == nil {
		return 50
	}
	return *c.NoiseAbsoluteFloor
}

// GetArtificialHistorySize returns the artificial_history_size value or the default.
func (c *TuningConfig) GetArtificialHistorySize() int {
	if c.ArtificialHistorySize == nil {
		return 15
	}
	return *c.ArtificialHistorySize
}

// GetArtificialLEDChannelMax returns the artificial_led_channel_max value or the default.
func (c *TuningConfig) GetArtificialLEDChannelMax() float64 {
	if c.ArtificialLEDChannelMax == nil {
		return 180
	}
	return *c.ArtificialLEDChannelMax
}

// GetArtificialLEDSpreadMax returns the artificial_led_spread_max value or the default.
func (c *TuningConfig) GetArtificialLEDSpreadMax() float64 {
	if c.ArtificialLEDSpreadMax == nil {
		return 30
	}
	return *c.ArtificialLEDSpreadMax
}

// GetArtificialLEDStabilityMin returns the artificial_led_stability_min value or the default.
func (c *TuningConfig) GetArtificialLEDStabilityMin() float64 {
	if c.ArtificialLEDStabilityMin == nil {
		return 0.95
	}
	return *c.ArtificialLEDStabilityMin
}

// GetArtificialBalancedBrightnessMin returns the artificial_balanced_brightness_min value or the default.
func (c *TuningConfig) GetArtificialBalancedBrightnessMin() float64 {
	if c.ArtificialBalancedBrightnessMin == nil {
		return 200
	}
	return *c.ArtificialBalancedBrightnessMin
}

// GetArtificialMetalBrightnessMin returns the artificial_metal_brightness_min value or the default.
func (c *TuningConfig) GetArtificialMetalBrightnessMin() float64 {
	if c.ArtificialMetalBrightnessMin == nil {
		return 160
	}
	return *c.ArtificialMetalBrightnessMin
}

// GetArtificialMetalTextureMax returns the artificial_metal_texture_max value or the default.
func (c *TuningConfig) GetArtificialMetalTextureMax() float64 {
	if c.ArtificialMetalTextureMax == nil {
		return 0.05
	}
	return *c.ArtificialMetalTextureMax
}

// GetArtificialMetalSpreadMax returns the artificial_metal_spread_max value or the default.
func (c *TuningConfig) GetArtificialMetalSpreadMax() float64 {
	if c.ArtificialMetalSpreadMax == nil {
		return 25
	}
	return *c.ArtificialMetalSpreadMax
}

// GetArtificialSkinRedMin returns the artificial_skin_red_min value or the default.
func (c *TuningConfig) GetArtificialSkinRedMin() float64 {
	if c.ArtificialSkinRedMin == nil {
		return 40
	}
	return *c.ArtificialSkinRedMin
}

// GetArtificialSkinRatioMin returns the artificial_skin_ratio_min value or the default.
func (c *TuningConfig) GetArtificialSkinRatioMin() float64 {
	if c.ArtificialSkinRatioMin == nil {
		return 1.05
	}
	return *c.ArtificialSkinRatioMin
}

// GetArtificialMinVariation returns the artificial_min_variation value or the default.
func (c *TuningConfig) GetArtificialMinVariation() float64 {
	if c.ArtificialMinVariation == nil {
		return 0.005
	}
	return *c.ArtificialMinVariation
}

// GetArtificialJumpMultiplier returns the artificial_jump_multiplier value or the default.
func (c *TuningConfig) GetArtificialJumpMultiplier() float64 {
	if c.ArtificialJumpMultiplier == nil {
		return 3
	}
	return *c.ArtificialJumpMultiplier
}

// GetArtificialJumpFraction returns the artificial_jump_fraction value or the default.
func (c *TuningConfig) GetArtificialJumpFraction() float64 {
	if c.ArtificialJumpFraction == nil {
		return 0.3
	}
	return *c.ArtificialJumpFraction
}

// GetArtificialSaturationLevel returns the artificial_saturation_level value or the default.
func (c *TuningConfig) GetArtificialSaturationLevel() float64 {
	if c.ArtificialSaturationLevel == nil {
		return 250
	}
	return *c.ArtificialSaturationLevel
}

// GetArtificialWeakLevel returns the artificial_weak_level value or the default.
func (c *TuningConfig) GetArtificialWeakLevel() float64 {
	if c.ArtificialWeakLevel == nil {
		return 20
	}
	return *c.ArtificialWeakLevel
}

// GetGateMinIntensity returns the gate_min_intensity value or the default.
func (c *TuningConfig) GetGateMinIntensity() float64 {
	if c.GateMinIntensity == nil {
		return 40
	}
	return *c.GateMinIntensity
}

// GetGateMaxIntensity returns the gate_max_intensity value or the default.
func (c *TuningConfig) GetGateMaxIntensity() float64 {
	if c.GateMaxIntensity == nil {
		return 250
	}
	return *c.GateMaxIntensity
}

// GetGateMinRedDominance returns the gate_min_red_dominance value or the default.
func (c *TuningConfig) GetGateMinRedDominance() float64 {
	if c.GateMinRedDominance == nil {
		return 0.4
	}
	return *c.GateMinRedDominance
}

// GetGateMaxRedDominance returns the gate_max_red_dominance value or the default.
func (c *TuningConfig) GetGateMaxRedDominance() float64 {
	if c.GateMaxRedDominance == nil {
		return 0.92
	}
	return *c.GateMaxRedDominance
}

// GetGateMinHemoglobinRatio returns the gate_min_hemoglobin_ratio value or the default.
func (c *TuningConfig) GetGateMinHemoglobinRatio() float64 {
	if c.GateMinHemoglobinRatio == nil {
		return 1.2
	}
	return *c.GateMinHemoglobinRatio
}

// GetGateMaxHemoglobinRatio returns the gate_max_hemoglobin_ratio value or the default.
func (c *TuningConfig) GetGateMaxHemoglobinRatio() float64 {
	if c.GateMaxHemoglobinRatio == nil {
		return 12
	}
	return *c.GateMaxHemoglobinRatio
}

// GetGateMinHemoglobinScore returns the gate_min_hemoglobin_score value or the default.
func (c *TuningConfig) GetGateMinHemoglobinScore() float64 {
	if c.GateMinHemoglobinScore == nil {
		return 0.3
	}
	return *c.GateMinHemoglobinScore
}

// GetGateMinStability returns the gate_min_stability value or the default.
func (c *TuningConfig) GetGateMinStability() float64 {
	if c.GateMinStability == nil {
		return 0.3
	}
	return *c.GateMinStability
}

// GetGateMinTexture returns the gate_min_texture value or the default.
func (c *TuningConfig) GetGateMinTexture() float64 {
	if c.GateMinTexture == nil {
		return 0.01
	}
	return *c.GateMinTexture
}

// GetGateMaxBrightnessUniformity returns the gate_max_brightness_uniformity value or the default.
func (c *TuningConfig) GetGateMaxBrightnessUniformity() float64 {
	if c.GateMaxBrightnessUniformity == nil {
		return 0.9
	}
	return *c.GateMaxBrightnessUniformity
}

// GetGateMinTemporalConsistency returns the gate_min_temporal_consistency value or the default.
func (c *TuningConfig) GetGateMinTemporalConsistency() float64 {
	if c.GateMinTemporalConsistency == nil {
		return 0.6
	}
	return *c.GateMinTemporalConsistency
}

// GetGateVetoMinHistory returns the gate_veto_min_history value or the default.
func (c *TuningConfig) GetGateVetoMinHistory() int {
	if c.GateVetoMinHistory == nil {
		return 8
	}
	return *c.GateVetoMinHistory
}

// GetGateHistorySize returns the gate_history_size value or the default.
func (c *TuningConfig) GetGateHistorySize() int {
	if c.GateHistorySize == nil {
		return 10
	}
	return *c.GateHistorySize
}

// GetDetectionConfirmFrames returns the detection_confirm_frames value or the default.
func (c *TuningConfig) GetDetectionConfirmFrames() int {
	if c.DetectionConfirmFrames == nil {
		return 3
	}
	return *c.DetectionConfirmFrames
}

// GetDetectionReleaseFrames returns the detection_release_frames value or the default.
func (c *TuningConfig) GetDetectionReleaseFrames() int {
	if c.DetectionReleaseFrames == nil {
		return 6
	}
	return *c.DetectionReleaseFrames
}

// GetDetectionTimeout returns detection_timeout as a time.Duration or the default.
func (c *TuningConfig) GetDetectionTimeout() time.Duration {
	return parseDurationOr(c.DetectionTimeout, time.Second)
}

// GetSampleRateHz returns the sample_rate_hz value or the default.
func (c *TuningConfig) GetSampleRateHz() float64 {
	if c.SampleRateHz == nil {
		return 30
	}
	return *c.SampleRateHz
}

// GetPeakThreshold returns the peak_threshold value or the default.
func (c *TuningConfig) GetPeakThreshold() float64 {
	if c.PeakThreshold == nil {
		return 0.3
	}
	return *c.PeakThreshold
}

// GetRefractoryPeriod returns refractory_period as a time.Duration or the default.
func (c *TuningConfig) GetRefractoryPeriod() time.Duration {
	return parseDurationOr(c.RefractoryPeriod, 500 * time.Millisecond)
}

// GetBPMMinConfidence returns the bpm_min_confidence value or the default.
func (c *TuningConfig) GetBPMMinConfidence() float64 {
	if c.BPMMinConfidence == nil {
		return 0.25
	}
	return *c.BPMMinConfidence
}

// GetSpectralWindow returns the spectral_window value or the default.
func (c *TuningConfig) GetSpectralWindow() int {
	if c.SpectralWindow == nil {
		return 256
	}
	return *c.SpectralWindow
}

// GetSpectralMagnitudeFloor returns the spectral_magnitude_floor value or the default.
func (c *TuningConfig) GetSpectralMagnitudeFloor() float64 {
	if c.SpectralMagnitudeFloor == nil {
		return 0.1
	}
	return *c.SpectralMagnitudeFloor
}

// GetLearningPeriod returns learning_period as a time.Duration or the default.
func (c *TuningConfig) GetLearningPeriod() time.Duration {
	return parseDurationOr(c.LearningPeriod, 3 * time.Second)
}

// GetRMSSDThresholdMs returns the rmssd_threshold_ms value or the default.
func (c *TuningConfig) GetRMSSDThresholdMs() float64 {
	if c.RMSSDThresholdMs == nil {
		return 25
	}
	return *c.RMSSDThresholdMs
}

// GetPrematureBeatFraction returns the premature_beat_fraction value or the default.
func (c *TuningConfig) GetPrematureBeatFraction() float64 {
	if c.PrematureBeatFraction == nil {
		return 0.25
	}
	return *c.PrematureBeatFraction
}

// GetBPConfidenceThreshold returns the bp_confidence_threshold value or the default.
func (c *TuningConfig) GetBPConfidenceThreshold() float64 {
	if c.BPConfidenceThreshold == nil {
		return 0.6
	}
	return *c.BPConfidenceThreshold
}

// GetFrameBudget returns frame_budget as a time.Duration or the default.
func (c *TuningConfig) GetFrameBudget() time.Duration {
	return parseDurationOr(c.FrameBudget, 12 * time.Millisecond)
}

// GetTargetFPS returns the target_fps value or the default.
func (c *TuningConfig) GetTargetFPS() float64 {
	if c.TargetFPS == nil {
		return 60
	}
	return *c.TargetFPS
}

// GetPerformanceMinHistory returns the performance_min_history value or the default.
func (c *TuningConfig) GetPerformanceMinHistory() int {
	if c.PerformanceMinHistory == nil {
		return 30
	}
	return *c.PerformanceMinHistory
}

// GetPerformanceDowngradeDropRate returns the performance_downgrade_drop_rate value or the default.
func (c *TuningConfig) GetPerformanceDowngradeDropRate() float64 {
	if c.PerformanceDowngradeDropRate == nil {
		return 0.1
	}
	return *c.PerformanceDowngradeDropRate
}

// GetPerformanceUpgradeDropRate returns the performance_upgrade_drop_rate value or the default.
func (c *TuningConfig) GetPerformanceUpgradeDropRate() float64 {
	if c.PerformanceUpgradeDropRate == nil {
		return 0.02
	}
	return *c.PerformanceUpgradeDropRate
}
