package l4cardiac

import "math"

// Per-tick decay applied while no finger is present.
const (
	bpmDecayStep        = 1
	confidenceDecayStep = 0.02
)

// BPMState is the held heart-rate estimate.
type BPMState struct {
	BPM        int
	Confidence float64
}

// BPMManager smooths accepted candidates into the held BPM state.
type BPMManager struct {
	minConfidence float64
	state         BPMState
}

// NewBPMManager returns a manager with no held estimate.
func NewBPMManager(minConfidence float64) *BPMManager {
	return &BPMManager{minConfidence: minConfidence}
}

// Update blends c into the held state. Candidates below the confidence floor
// or outside the plausible rate band are ignored. It reports whether c was
// accepted.
func (m *BPMManager) Update(c Candidate) bool {
	if c.Confidence < m.minConfidence || c.BPM <= AcceptMinBPM || c.BPM >= AcceptMaxBPM {
		return false
	}
	if m.state.BPM == 0 {
		m.state = BPMState{BPM: int(math.Round(c.BPM)), Confidence: c.Confidence}
		return true
	}
	m.state = BPMState{
		BPM:        int(math.Round(0.5*float64(m.state.BPM) + 0.5*c.BPM)),
		Confidence: 0.5*m.state.Confidence + 0.5*c.Confidence,
	}
	return true
}

// Decay steps the held state toward zero.
func (m *BPMManager) Decay() {
	m.state.BPM = max(0, m.state.BPM-bpmDecayStep)
	m.state.Confidence = math.Max(0, m.state.Confidence-confidenceDecayStep)
}

// State returns the held estimate.
func (m *BPMManager) State() BPMState { return m.state }

// Reset clears the held estimate.
func (m *BPMManager) Reset() { m.state = BPMState{} }
