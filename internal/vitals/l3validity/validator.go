package l3validity

import (
	"fmt"

	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
)

// Verdict is the layer's output for one frame.
type Verdict struct {
	Scores         DetectorScores
	Outcome        ValidationOutcome
	FingerDetected bool
	Changed        bool // FingerDetected flipped on this frame
}

// Validator wires the calibrator, the three validators, the gate and the
// detection tracker into a single per-frame step.
type Validator struct {
	calibrator *NoiseFloorCalibrator
	artificial *ArtificialSourceDetector
	skin       SkinTextureAnalyzer
	bio        *BiophysicalValidator
	gate       *VetoGate
	tracker    *DetectionTracker
}

// NewValidator validates cfg and builds the layer.
func NewValidator(cfg Config) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid validity config: %w", err)
	}
	return &Validator{
		calibrator: NewNoiseFloorCalibrator(cfg.Noise),
		artificial: NewArtificialSourceDetector(cfg.Artificial),
		bio:        NewBiophysicalValidator(),
		gate:       NewVetoGate(cfg.Gate),
		tracker:    NewDetectionTracker(cfg.Detection),
	}, nil
}

// Assess evaluates f. With adaptive false the provisional noise threshold is
// used; with temporal false the temporal checks are skipped.
func (v *Validator) Assess(f l1frames.Frame, adaptive, temporal bool) Verdict {
	v.calibrator.Observe(f.CornerLuminance())

	scores := DetectorScores{
		AboveNoise:  f.Stats.MeanRed > v.calibrator.Threshold(adaptive),
		Artificial:  v.artificial.Evaluate(f.Stats, temporal),
		Skin:        v.skin.Analyze(f.Patch),
		Biophysical: v.bio.Evaluate(f.Stats, f.RawValue),
		Temporal:    temporal,
	}
	outcome := v.gate.Validate(f.Stats, scores)
	changed := v.tracker.Update(outcome.IsValid, f.TimestampMs)

	tracef("ts=%d valid=%t failed=%v artificial=%v", f.TimestampMs, outcome.IsValid, outcome.FailedRules, scores.Artificial.Reasons)

	return Verdict{
		Scores:         scores,
		Outcome:        outcome,
		FingerDetected: v.tracker.Detected(),
		Changed:        changed,
	}
}

// Calibrator exposes the noise floor calibrator.
func (v *Validator) Calibrator() *NoiseFloorCalibrator { return v.calibrator }

// Gate exposes the veto gate.
func (v *Validator) Gate() *VetoGate { return v.gate }

// Detection returns the debounced detection state.
func (v *Validator) Detection() DetectionState { return v.tracker.State() }

// Reset returns every component to its post-construction state.
func (v *Validator) Reset() {
	v.calibrator.Reset()
	v.artificial.Reset()
	v.bio.Reset()
	v.gate.Reset()
	v.tracker.Reset()
}
