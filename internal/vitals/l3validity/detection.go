package l3validity

import (
	"github.com/banshee-data/vitals.report/internal/timeutil"
)

// DetectionState is the debounced finger-presence state.
type DetectionState struct {
	FingerDetected          bool
	ConsecutiveDetections   int
	ConsecutiveNoDetections int
	LastDetectionMs         int64
	HasDetection            bool // LastDetectionMs is set
}

// DetectionTracker debounces per-frame gate verdicts into finger presence.
type DetectionTracker struct {
	cfg   DetectionConfig
	state DetectionState
}

// NewDetectionTracker returns a tracker with no finger detected.
func NewDetectionTracker(cfg DetectionConfig) *DetectionTracker {
	return &DetectionTracker{cfg: cfg}
}

// Update folds one frame verdict at nowMs into the state. It reports whether
// FingerDetected changed.
func (t *DetectionTracker) Update(valid bool, nowMs int64) bool {
	s := &t.state
	before := s.FingerDetected

	if valid {
		s.ConsecutiveDetections++
		s.ConsecutiveNoDetections = 0
		s.LastDetectionMs = nowMs
		s.HasDetection = true
		if s.ConsecutiveDetections >= t.cfg.ConfirmFrames {
			s.FingerDetected = true
		}
	} else {
		s.ConsecutiveNoDetections++
		s.ConsecutiveDetections = 0
		if s.ConsecutiveNoDetections >= t.cfg.ReleaseFrames {
			s.FingerDetected = false
		}
	}
	if s.FingerDetected && s.HasDetection && timeutil.ElapsedMillis(nowMs, s.LastDetectionMs, t.cfg.Timeout) {
		s.FingerDetected = false
	}

	if s.FingerDetected != before {
		if s.FingerDetected {
			diagf("finger detected at %dms", nowMs)
		} else {
			diagf("finger lost at %dms", nowMs)
		}
		return true
	}
	return false
}

// State returns a copy of the current state.
func (t *DetectionTracker) State() DetectionState { return t.state }

// Detected reports whether a finger is currently detected.
func (t *DetectionTracker) Detected() bool { return t.state.FingerDetected }

// Reset returns the tracker to its initial state.
func (t *DetectionTracker) Reset() {
	t.state = DetectionState{}
}
