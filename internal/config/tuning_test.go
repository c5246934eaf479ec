package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEmptyTuningConfig_GettersReturnDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	if got := cfg.GetNoiseCalibrationFrames(); got != 30 {
		t.Errorf("GetNoiseCalibrationFrames() = %d, want 30", got)
	}
	if got := cfg.GetNoisePercentile(); got != 0.15 {
		t.Errorf("GetNoisePercentile() = %f, want 0.15", got)
	}
	if got := cfg.GetPeakThreshold(); got != 0.3 {
		t.Errorf("GetPeakThreshold() = %f, want 0.3", got)
	}
	if got := cfg.GetRefractoryPeriod(); got != 500*time.Millisecond {
		t.Errorf("GetRefractoryPeriod() = %v, want 500ms", got)
	}
	if got := cfg.GetLearningPeriod(); got != 3*time.Second {
		t.Errorf("GetLearningPeriod() = %v, want 3s", got)
	}
	if got := cfg.GetFrameBudget(); got != 12*time.Millisecond {
		t.Errorf("GetFrameBudget() = %v, want 12ms", got)
	}
	if got := cfg.GetTargetFPS(); got != 60 {
		t.Errorf("GetTargetFPS() = %f, want 60", got)
	}
	if got := cfg.GetGateHistorySize(); got != 10 {
		t.Errorf("GetGateHistorySize() = %d, want 10", got)
	}
}

// TestDefaultsFileMatchesGetters guards against the shipped JSON table and
// the Go fallbacks drifting apart.
func TestDefaultsFileMatchesGetters(t *testing.T) {
	fromFile := MustLoadDefaultConfig()
	empty := EmptyTuningConfig()

	// Every field in the defaults file must be set.
	data, err := json.Marshal(fromFile)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var keys map[string]interface{}
	if err := json.Unmarshal(data, &keys); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	emptyData, _ := json.Marshal(empty)
	if string(emptyData) != "{}" {
		t.Fatalf("empty config should marshal to {}, got %s", emptyData)
	}
	if len(keys) == 0 {
		t.Fatal("defaults file produced no keys")
	}

	checks := []struct {
		name      string
		file, def interface{}
	}{
		{"noise_calibration_frames", fromFile.GetNoiseCalibrationFrames(), empty.GetNoiseCalibrationFrames()},
		{"noise_multiplier", fromFile.GetNoiseMultiplier(), empty.GetNoiseMultiplier()},
		{"noise_absolute_floor", fromFile.GetNoiseAbsoluteFloor(), empty.GetNoiseAbsoluteFloor()},
		{"artificial_led_channel_max", fromFile.GetArtificialLEDChannelMax(), empty.GetArtificialLEDChannelMax()},
		{"artificial_min_variation", fromFile.GetArtificialMinVariation(), empty.GetArtificialMinVariation()},
		{"gate_min_intensity", fromFile.GetGateMinIntensity(), empty.GetGateMinIntensity()},
		{"gate_max_brightness_uniformity", fromFile.GetGateMaxBrightnessUniformity(), empty.GetGateMaxBrightnessUniformity()},
		{"gate_veto_min_history", fromFile.GetGateVetoMinHistory(), empty.GetGateVetoMinHistory()},
		{"detection_timeout", fromFile.GetDetectionTimeout(), empty.GetDetectionTimeout()},
		{"spectral_window", fromFile.GetSpectralWindow(), empty.GetSpectralWindow()},
		{"bp_confidence_threshold", fromFile.GetBPConfidenceThreshold(), empty.GetBPConfidenceThreshold()},
		{"performance_min_history", fromFile.GetPerformanceMinHistory(), empty.GetPerformanceMinHistory()},
	}
	for _, c := range checks {
		if c.file != c.def {
			t.Errorf("%s: file=%v default=%v", c.name, c.file, c.def)
		}
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "noise_multiplier": 3.0,
  "refractory_period": "400ms",
  "gate_min_intensity": 30,
  "target_fps": 30
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if got := cfg.GetNoiseMultiplier(); got != 3.0 {
		t.Errorf("GetNoiseMultiplier() = %f, want 3.0", got)
	}
	if got := cfg.GetRefractoryPeriod(); got != 400*time.Millisecond {
		t.Errorf("GetRefractoryPeriod() = %v, want 400ms", got)
	}
	if got := cfg.GetGateMinIntensity(); got != 30 {
		t.Errorf("GetGateMinIntensity() = %f, want 30", got)
	}
	if got := cfg.GetTargetFPS(); got != 30 {
		t.Errorf("GetTargetFPS() = %f, want 30", got)
	}
	// Omitted fields keep their defaults.
	if got := cfg.GetGateMaxIntensity(); got != 250 {
		t.Errorf("GetGateMaxIntensity() = %f, want 250", got)
	}
}

func TestLoadTuningConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{"wrong extension", "config.yaml", `{}`},
		{"invalid json", "bad.json", `{not json`},
		{"invalid duration", "dur.json", `{"refractory_period": "soon"}`},
		{"negative duration", "neg.json", `{"learning_period": "-1s"}`},
		{"percentile out of range", "pct.json", `{"noise_percentile": 1.5}`},
		{"non-positive window", "win.json", `{"spectral_window": 0}`},
		{"inverted intensity band", "band.json", `{"gate_min_intensity": 200, "gate_max_intensity": 100}`},
		{"veto history exceeds history", "hist.json", `{"gate_veto_min_history": 12, "gate_history_size": 10}`},
		{"inverted drop rates", "drop.json", `{"performance_upgrade_drop_rate": 0.5}`},
		{"non-positive sample rate", "rate.json", `{"sample_rate_hz": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.filename)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := LoadTuningConfig(path); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}

	if _, err := LoadTuningConfig(filepath.Join(tmpDir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadTuningConfig_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "large.json")
	big := make([]byte, 1024*1024+1)
	for i := range big {
		big[i] = ' '
	}
	if err := os.WriteFile(path, big, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected error for oversized file")
	}
}

func TestInvalidDurationFallsBackToDefault(t *testing.T) {
	bad := "nonsense"
	cfg := &TuningConfig{DetectionTimeout: &bad}
	if got := cfg.GetDetectionTimeout(); got != time.Second {
		t.Errorf("GetDetectionTimeout() = %v, want 1s fallback", got)
	}
}
