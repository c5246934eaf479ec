package l4cardiac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeakDetector_RefractoryBoundary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		gapMs    int64
		accepted bool
	}{
		{"exactly refractory", 500, true},
		{"one ms short", 499, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewPeakDetector(0.3, 500*time.Millisecond)
			first, ok := d.Process(0.5, 1000)
			require.True(t, ok)
			assert.Zero(t, first.IntervalMs)

			b, ok := d.Process(0.5, 1000+tt.gapMs)
			assert.Equal(t, tt.accepted, ok)
			if tt.accepted {
				assert.Equal(t, float64(tt.gapMs), b.IntervalMs)
				assert.Equal(t, []float64{float64(tt.gapMs)}, d.Intervals())
			} else {
				assert.Empty(t, d.Intervals())
				last, _ := d.LastPeak()
				assert.Equal(t, int64(1000), last)
			}
		})
	}
}

func TestPeakDetector_Threshold(t *testing.T) {
	t.Parallel()
	d := NewPeakDetector(0.3, 500*time.Millisecond)
	_, ok := d.Process(0.3, 0)
	assert.False(t, ok, "threshold must be exceeded")
	_, ok = d.Process(0.31, 33)
	assert.True(t, ok)
}

func TestPeakDetector_SeriesCapacity(t *testing.T) {
	t.Parallel()
	d := NewPeakDetector(0.3, 500*time.Millisecond)
	for i := int64(0); i < 30; i++ {
		d.Process(1, i*(600+i))
	}
	rr := d.Intervals()
	require.Len(t, rr, RRCapacity)
	// Newest interval is between beats 28 and 29.
	assert.Equal(t, float64(29*629-28*628), rr[len(rr)-1])

	d.Reset()
	assert.Empty(t, d.Intervals())
	_, ok := d.LastPeak()
	assert.False(t, ok)
}

func TestTimeDomainCandidate(t *testing.T) {
	t.Parallel()
	_, ok := TimeDomainCandidate([]float64{800})
	assert.False(t, ok)

	c, ok := TimeDomainCandidate([]float64{800, 800})
	require.True(t, ok)
	assert.InDelta(t, 75.0, c.BPM, 1e-9)
	assert.InDelta(t, 1.0, c.Confidence, 1e-9)
	assert.Equal(t, SourceTimeDomain, c.Source)

	// Only the newest five intervals count.
	c, ok = TimeDomainCandidate([]float64{300, 300, 1000, 1000, 1000, 1000, 1000})
	require.True(t, ok)
	assert.InDelta(t, 60.0, c.BPM, 1e-9)

	c, ok = TimeDomainCandidate([]float64{600, 1200})
	require.True(t, ok)
	assert.InDelta(t, 60000.0/900, c.BPM, 1e-9)
	assert.InDelta(t, 1-300.0/900, c.Confidence, 1e-9)
}
