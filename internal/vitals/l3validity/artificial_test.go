package l3validity

import (
	"testing"

	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
	"github.com/stretchr/testify/assert"
)

var fingerStats = l1frames.ChannelStats{MeanRed: 200, MeanGreen: 50, MeanBlue: 40, TextureScore: 0.2, Stability: 0.8}

func TestArtificialSourceDetector_Sources(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		stats  l1frames.ChannelStats
		reason string
	}{
		{"led", l1frames.ChannelStats{MeanRed: 200, MeanGreen: 195, MeanBlue: 190, TextureScore: 0.2, Stability: 0.99}, ReasonLEDSource},
		{"balanced white light", l1frames.ChannelStats{MeanRed: 215, MeanGreen: 205, MeanBlue: 200, TextureScore: 0.2, Stability: 0.5}, ReasonBalancedLight},
		{"metal", l1frames.ChannelStats{MeanRed: 170, MeanGreen: 165, MeanBlue: 160, TextureScore: 0.01, Stability: 0.5}, ReasonMetallicSurface},
		{"green object", l1frames.ChannelStats{MeanRed: 90, MeanGreen: 120, MeanBlue: 40, TextureScore: 0.2, Stability: 0.5}, ReasonNonBiologicalColor},
		{"saturated", l1frames.ChannelStats{MeanRed: 255, MeanGreen: 60, MeanBlue: 50, TextureScore: 0.2, Stability: 0.5}, ReasonSaturated},
		{"too weak", l1frames.ChannelStats{MeanRed: 10, MeanGreen: 5, MeanBlue: 5}, ReasonTooWeak},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewArtificialSourceDetector(DefaultConfig().Artificial)
			res := d.Evaluate(tt.stats, true)
			assert.True(t, res.IsArtificial)
			assert.Contains(t, res.Reasons, tt.reason)
		})
	}
}

func TestArtificialSourceDetector_CollectsAllReasons(t *testing.T) {
	t.Parallel()
	d := NewArtificialSourceDetector(DefaultConfig().Artificial)
	res := d.Evaluate(l1frames.ChannelStats{MeanRed: 10, MeanGreen: 5, MeanBlue: 5}, false)
	assert.Equal(t, []string{ReasonNonBiologicalColor, ReasonTooWeak}, res.Reasons)
}

func TestArtificialSourceDetector_Finger(t *testing.T) {
	t.Parallel()
	d := NewArtificialSourceDetector(DefaultConfig().Artificial)
	res := d.Evaluate(fingerStats, true)
	assert.False(t, res.IsArtificial)
	assert.Empty(t, res.Reasons)
}

func TestArtificialSourceDetector_AbnormalStability(t *testing.T) {
	t.Parallel()
	d := NewArtificialSourceDetector(DefaultConfig().Artificial)
	for i := 0; i < minTemporalHistory-1; i++ {
		assert.False(t, d.Evaluate(fingerStats, true).IsArtificial, "frame %d", i)
	}
	res := d.Evaluate(fingerStats, true)
	assert.Equal(t, []string{ReasonAbnormalStability}, res.Reasons)

	// Temporal validation disabled skips the check.
	assert.False(t, d.Evaluate(fingerStats, false).IsArtificial)
}

func TestArtificialSourceDetector_RepetitiveJumps(t *testing.T) {
	t.Parallel()
	d := NewArtificialSourceDetector(DefaultConfig().Artificial)
	reds := []float64{100, 100, 100, 150, 150, 150, 100, 100, 100, 150, 150, 150, 100, 100}
	var res ArtificialResult
	for _, r := range reds {
		res = d.Evaluate(l1frames.ChannelStats{MeanRed: r, MeanGreen: 30, MeanBlue: 20, TextureScore: 0.2, Stability: 0.5}, true)
	}
	assert.Contains(t, res.Reasons, ReasonRepetitiveJumps)
	assert.NotContains(t, res.Reasons, ReasonAbnormalStability)
}

func TestArtificialSourceDetector_Reset(t *testing.T) {
	t.Parallel()
	d := NewArtificialSourceDetector(DefaultConfig().Artificial)
	for i := 0; i < 12; i++ {
		d.Evaluate(fingerStats, true)
	}
	d.Reset()
	assert.Equal(t, 0, d.history.Len())
	assert.False(t, d.Evaluate(fingerStats, true).IsArtificial)
}
