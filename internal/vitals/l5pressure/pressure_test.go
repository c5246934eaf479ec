package l5pressure

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEstimator(t *testing.T) *Estimator {
	t.Helper()
	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)
	return e
}

// feedPulse adds n samples of a 72 BPM sinusoid sampled at 30 Hz.
func feedPulse(e *Estimator, n int) {
	for i := 0; i < n; i++ {
		e.Add(0.6 + 0.05*math.Sin(2*math.Pi*float64(i)/25))
	}
}

func TestNewEstimator_RejectsBadConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.BufferSize = 10
	_, err := NewEstimator(cfg)
	assert.Error(t, err)
}

func TestDetectPeaks(t *testing.T) {
	t.Parallel()
	x := make([]float64, 100)
	for i := range x {
		x[i] = 0.6 + 0.05*math.Sin(2*math.Pi*float64(i)/25)
	}
	assert.Equal(t, []int{6, 31, 56, 81}, detectPeaks(x))

	flat := make([]float64, 100)
	assert.Empty(t, detectPeaks(flat))
	assert.Empty(t, detectPeaks([]float64{1, 2, 1}))
}

func TestMorphologyFactor(t *testing.T) {
	t.Parallel()
	// Fast upstroke (2 samples), slow downstroke (6 samples): clamped to 1.3.
	x := []float64{0, 0, 5, 10, 9, 8, 7, 6, 5, 4, 4}
	assert.InDelta(t, 1.3, morphologyFactor(x, []int{3}), 1e-12)

	// Symmetric pulse.
	y := []float64{1, 0, 1, 2, 3, 2, 1, 0, 1}
	assert.InDelta(t, 1.0, morphologyFactor(y, []int{4}), 1e-12)

	// Peak whose trough is outside the buffer is ignored.
	assert.Equal(t, 1.0, morphologyFactor([]float64{1, 2, 3, 2, 1}, []int{2}))
}

func TestEstimator_InsufficientData(t *testing.T) {
	t.Parallel()
	e := newTestEstimator(t)
	feedPulse(e, MinSamples-1)
	res := e.Estimate(72, 300)
	assert.False(t, res.Available)
	assert.Equal(t, "--/--", res.String())

	// Enough samples but fewer than MinPTT estimates buffered.
	feedPulse(e, 100)
	for i := 0; i < MinPTT-1; i++ {
		assert.False(t, e.Estimate(72, 300).Available)
	}
	assert.True(t, e.Estimate(72, 300).Available)
}

func TestEstimator_UncalibratedIsFlagged(t *testing.T) {
	t.Parallel()
	e := newTestEstimator(t)
	feedPulse(e, 300)
	var res Result
	for i := 0; i < MinPTT; i++ {
		res = e.Estimate(72, 300)
	}
	require.True(t, res.Available)
	assert.False(t, res.Calibrated)
	assert.GreaterOrEqual(t, res.Systolic, 90)
	assert.LessOrEqual(t, res.Systolic, 180)
	assert.Less(t, res.Diastolic, res.Systolic)
}

func TestEstimator_ConfidentResultBecomesFallback(t *testing.T) {
	t.Parallel()
	e := newTestEstimator(t)
	feedPulse(e, 300)
	var res Result
	for i := 0; i < MinPTT; i++ {
		res = e.Estimate(72, 300)
	}
	require.True(t, res.Available)
	require.Greater(t, res.Confidence, 0.6)

	last, ok := e.LastValid()
	require.True(t, ok)
	assert.Equal(t, res, last)

	// Not enough data in a short window: the last valid result returns.
	fb := e.Estimate(72, 30)
	assert.True(t, fb.Fallback)
	assert.True(t, fb.Available)
	assert.Equal(t, res.Systolic, fb.Systolic)
	assert.Equal(t, res.Diastolic, fb.Diastolic)
}

func TestEstimator_Calibration(t *testing.T) {
	t.Parallel()
	e := newTestEstimator(t)
	feedPulse(e, 300)
	for i := 0; i < MinPTT; i++ {
		e.Estimate(72, 300)
	}
	require.NoError(t, e.Calibrate(130, 85, 50))

	cal, ok := e.Calibration()
	require.True(t, ok)
	assert.Equal(t, 50, cal.Age)
	assert.Greater(t, cal.BaselinePTT, 0.0)

	// At the baseline PTT and reference rate, systolic follows the cuff
	// reading plus the age adjustment.
	res := e.Estimate(70, 300)
	assert.True(t, res.Calibrated)
	assert.InDelta(t, 134, res.Systolic, 1)
	assert.Equal(t, int(math.Round(0.65*float64(res.Systolic))), res.Diastolic)
}

func TestEstimator_CalibrateRejectsInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		sys, dia float64
		age      int
	}{
		{"systolic low", 60, 40, 30},
		{"systolic high", 260, 90, 30},
		{"diastolic low", 120, 30, 30},
		{"diastolic above systolic", 120, 125, 30},
		{"age", 120, 80, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEstimator(t)
			err := e.Calibrate(tt.sys, tt.dia, tt.age)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCalibration))
			_, ok := e.Calibration()
			assert.False(t, ok)
		})
	}
}

func TestEstimator_DiastolicBelowSystolic(t *testing.T) {
	t.Parallel()
	for _, cal := range []struct {
		sys, dia float64
		age      int
	}{
		{70, 45, 20},
		{120, 80, 40},
		{250, 149, 120},
	} {
		for _, hr := range []float64{0, 30, 70, 120, 200} {
			for _, ptt := range []float64{200, 600, 800, 1500, 4000} {
				e := newTestEstimator(t)
				require.NoError(t, e.Calibrate(cal.sys, cal.dia, cal.age))
				e.cal.BaselinePTT = 800
				sys, dia := e.model(ptt, hr)
				assert.Less(t, dia, sys)
				assert.LessOrEqual(t, dia, sys-pulseMargin)
				assert.GreaterOrEqual(t, sys, minSystolic)
				assert.LessOrEqual(t, sys, maxSystolic)
				assert.GreaterOrEqual(t, dia, minDiastolic)
			}
		}
	}
}

func TestEstimator_ResetIdempotent(t *testing.T) {
	t.Parallel()
	e := newTestEstimator(t)
	feedPulse(e, 300)
	for i := 0; i < MinPTT; i++ {
		e.Estimate(72, 300)
	}
	require.NoError(t, e.Calibrate(120, 80, 40))

	e.Reset()
	e.Reset()
	_, ok := e.Calibration()
	assert.False(t, ok)
	_, ok = e.LastValid()
	assert.False(t, ok)
	assert.Equal(t, 0, e.samples.Len())
	assert.Equal(t, 0, e.ptt.Len())
	assert.Equal(t, Result{}, e.Estimate(72, 300))
}

func TestEstimator_Hold(t *testing.T) {
	t.Parallel()
	e := newTestEstimator(t)
	assert.False(t, e.Hold().Available)

	feedPulse(e, 300)
	var res Result
	for i := 0; i < MinPTT; i++ {
		res = e.Estimate(72, 300)
	}
	held := e.Hold()
	assert.True(t, held.Fallback)
	assert.Equal(t, res.String(), held.String())
}
