package l3validity

import (
	"math"

	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
	"github.com/banshee-data/vitals.report/internal/vitals/ring"
)

// Rule identifiers, in evaluation order.
const (
	RuleNoiseFloor           = "noise_floor"
	RuleIntensityRange       = "intensity_range"
	RuleRedDominance         = "red_dominance"
	RuleHemoglobinRatio      = "hemoglobin_ratio"
	RuleHemoglobinSignature  = "hemoglobin_signature"
	RuleSkinTexture          = "skin_texture"
	RuleArtificialSource     = "artificial_source"
	RuleStability            = "stability"
	RuleTexture              = "texture"
	RuleBrightnessUniformity = "brightness_uniformity"
	RuleTemporalConsistency  = "temporal_consistency"
)

// DetectorScores are the validator outputs for one frame. They are computed
// fresh each tick and handed to the gate by value.
type DetectorScores struct {
	AboveNoise  bool
	Artificial  ArtificialResult
	Skin        SkinTexture
	Biophysical Biophysical

	// Temporal is false when temporal validation is disabled; the temporal
	// consistency rule is then skipped.
	Temporal bool
}

// ValidationOutcome is the gate verdict for one frame.
type ValidationOutcome struct {
	IsValid     bool
	FailedRules []string
	Vetoed      bool
}

// VetoGate combines validator scores into a single pass/fail verdict. Rules
// 1, 5, 6 and 7 are vetoes: failing one ends evaluation. The remaining rules
// are recorded and any failure invalidates the frame.
type VetoGate struct {
	cfg     GateConfig
	history *ring.Buffer[bool]
}

// NewVetoGate returns a gate with an empty outcome history.
func NewVetoGate(cfg GateConfig) *VetoGate {
	return &VetoGate{cfg: cfg, history: ring.New[bool](cfg.HistorySize)}
}

// Validate runs the rules against s and scores and records the outcome.
func (g *VetoGate) Validate(s l1frames.ChannelStats, scores DetectorScores) ValidationOutcome {
	out := g.evaluate(s, scores)
	g.history.Push(out.IsValid)
	return out
}

func (g *VetoGate) evaluate(s l1frames.ChannelStats, scores DetectorScores) ValidationOutcome {
	c := g.cfg

	if !scores.AboveNoise {
		return vetoed(nil, RuleNoiseFloor)
	}

	var failed []string
	if s.MeanRed < c.MinIntensity || s.MeanRed > c.MaxIntensity {
		failed = append(failed, RuleIntensityRange)
	}
	if d := redDominance(s); d < c.MinRedDominance || d > c.MaxRedDominance {
		failed = append(failed, RuleRedDominance)
	}
	if r := s.MeanRed / math.Max(s.MeanGreen, 1); r < c.MinHemoglobinRatio || r > c.MaxHemoglobinRatio {
		failed = append(failed, RuleHemoglobinRatio)
	}

	// Signature, texture and artificial vetoes apply once the history holds
	// VetoMinHistory outcomes. A pulse outside the pulsatility band fails the
	// signature along with a low hemoglobin score.
	if g.history.Len() >= c.VetoMinHistory {
		bio := scores.Biophysical
		if bio.HemoglobinScore < c.MinHemoglobinScore || !bio.PulsatilityValid {
			return vetoed(failed, RuleHemoglobinSignature)
		}
		if !scores.Skin.IsSkin {
			return vetoed(failed, RuleSkinTexture)
		}
		if scores.Artificial.IsArtificial {
			return vetoed(failed, RuleArtificialSource)
		}
	}

	if s.Stability < c.MinStability {
		failed = append(failed, RuleStability)
	}
	if s.TextureScore < c.MinTexture {
		failed = append(failed, RuleTexture)
	}
	if brightnessUniformity(s) > c.MaxBrightnessUniformity {
		failed = append(failed, RuleBrightnessUniformity)
	}
	if scores.Temporal && scores.Biophysical.TemporalConsistency < c.MinTemporalConsistency {
		failed = append(failed, RuleTemporalConsistency)
	}
	return ValidationOutcome{IsValid: len(failed) == 0, FailedRules: failed}
}

// vetoed ends evaluation at rule, keeping the failures recorded before it.
func vetoed(failed []string, rule string) ValidationOutcome {
	return ValidationOutcome{FailedRules: append(failed, rule), Vetoed: true}
}

// RecentSuccessRate returns the fraction of recent outcomes that passed, or
// 0 with no history.
func (g *VetoGate) RecentSuccessRate() float64 {
	if g.history.Len() == 0 {
		return 0
	}
	passed := 0
	for _, ok := range g.history.Values() {
		if ok {
			passed++
		}
	}
	return float64(passed) / float64(g.history.Len())
}

// HistoryLen returns the number of recorded outcomes.
func (g *VetoGate) HistoryLen() int { return g.history.Len() }

// Reset clears the outcome history.
func (g *VetoGate) Reset() {
	g.history.Clear()
}

func redDominance(s l1frames.ChannelStats) float64 {
	total := s.MeanRed + s.MeanGreen + s.MeanBlue
	if total <= 0 {
		return 0
	}
	return s.MeanRed / total
}

// brightnessUniformity is 1 for a perfectly grey frame and falls as the
// channels diverge.
func brightnessUniformity(s l1frames.ChannelStats) float64 {
	return 1 - s.Spread()/math.Max(s.Brightness(), 1)
}
