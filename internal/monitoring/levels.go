package monitoring

import "fmt"

// Level is a discrete processing fidelity.
type Level int

// Performance levels, highest fidelity first.
const (
	LevelHigh Level = iota
	LevelMedium
	LevelLow
)

func (l Level) String() string {
	switch l {
	case LevelHigh:
		return "high"
	case LevelMedium:
		return "medium"
	case LevelLow:
		return "low"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// MarshalText renders the level name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses a level name.
func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel maps a level name to its Level.
func ParseLevel(s string) (Level, error) {
	for _, l := range []Level{LevelHigh, LevelMedium, LevelLow} {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown performance level %q", s)
}

// Features is the set of optional pipeline stages enabled at a level.
type Features struct {
	Spectral           bool `json:"spectral"`            // Frequency-domain heart-rate estimate
	ModelFiltering     bool `json:"model_filtering"`     // Optional per-sample signal model
	AdaptiveThresholds bool `json:"adaptive_thresholds"` // Calibrated noise floor instead of the provisional threshold
	TemporalValidation bool `json:"temporal_validation"` // History-based artificial-source and consistency checks
}

// LevelConfig is the fixed processing configuration of a level.
type LevelConfig struct {
	Decimation int      `json:"decimation"`  // Run the full pipeline on every Nth tick
	BufferSize int      `json:"buffer_size"` // Samples analysed by window-based estimators
	Features   Features `json:"features"`
}

var levelConfigs = [...]LevelConfig{
	LevelHigh: {
		Decimation: 1,
		BufferSize: 300,
		Features:   Features{Spectral: true, ModelFiltering: true, AdaptiveThresholds: true, TemporalValidation: true},
	},
	LevelMedium: {
		Decimation: 2,
		BufferSize: 200,
		Features:   Features{Spectral: true, AdaptiveThresholds: true, TemporalValidation: true},
	},
	LevelLow: {
		Decimation: 3,
		BufferSize: 150,
	},
}

// Config returns the processing configuration for l.
func (l Level) Config() LevelConfig {
	if l < LevelHigh || l > LevelLow {
		return levelConfigs[LevelLow]
	}
	return levelConfigs[l]
}
