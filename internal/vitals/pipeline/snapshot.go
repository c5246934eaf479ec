package pipeline

import (
	"github.com/banshee-data/vitals.report/internal/monitoring"
	"github.com/banshee-data/vitals.report/internal/units"
	"github.com/banshee-data/vitals.report/internal/vitals/l4cardiac"
)

// Snapshot is the per-tick vital-signs output.
type Snapshot struct {
	HeartRate        int                        `json:"heart_rate"`
	Confidence       float64                    `json:"confidence"`
	SpO2             int                        `json:"spo2"`
	Pressure         string                     `json:"pressure"`
	Systolic         int                        `json:"systolic"`          // 0 when unavailable
	Diastolic        int                        `json:"diastolic"`         // 0 when unavailable
	PressureAdvisory bool                       `json:"pressure_advisory"` // Uncalibrated estimate
	ArrhythmiaStatus l4cardiac.ArrhythmiaStatus `json:"arrhythmia_status"`
	ArrhythmiaCount  int                        `json:"arrhythmia_count"`
	FingerDetected   bool                       `json:"finger_detected"`
	Quality          int                        `json:"quality"` // 0-100
	TimestampMs      int64                      `json:"timestamp_ms"`
	Level            monitoring.Level           `json:"level"`
	FailedRules      []string                   `json:"failed_rules,omitempty"`
}

// EmptySnapshot is the output before any frame has been processed.
func EmptySnapshot() Snapshot {
	return Snapshot{Pressure: units.FormatPressure(0, 0)}
}
