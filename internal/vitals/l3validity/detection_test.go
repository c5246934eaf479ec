package l3validity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestTracker() *DetectionTracker {
	return NewDetectionTracker(DetectionConfig{ConfirmFrames: 3, ReleaseFrames: 6, Timeout: time.Second})
}

func TestDetectionTracker_Debounce(t *testing.T) {
	t.Parallel()
	tr := newTestTracker()
	ts := int64(0)
	step := func(valid bool) bool {
		ts += 33
		return tr.Update(valid, ts)
	}

	assert.False(t, step(true))
	assert.False(t, step(true))
	assert.True(t, step(true), "third valid frame confirms")
	assert.True(t, tr.Detected())

	// A brief dropout does not clear detection.
	for i := 0; i < 5; i++ {
		assert.False(t, step(false))
		assert.True(t, tr.Detected())
	}
	assert.True(t, step(false), "sixth invalid frame releases")
	assert.False(t, tr.Detected())

	st := tr.State()
	assert.Equal(t, 6, st.ConsecutiveNoDetections)
	assert.Equal(t, 0, st.ConsecutiveDetections)
	assert.True(t, st.HasDetection)
	assert.Equal(t, int64(99), st.LastDetectionMs)
}

func TestDetectionTracker_Timeout(t *testing.T) {
	t.Parallel()
	tr := newTestTracker()
	for i := int64(1); i <= 3; i++ {
		tr.Update(true, i*33)
	}
	assert.True(t, tr.Detected())

	// Sparse invalid ticks: the timeout fires before the release count.
	assert.False(t, tr.Update(false, 599))
	assert.True(t, tr.Detected())
	assert.True(t, tr.Update(false, 1099))
	assert.False(t, tr.Detected())
}

func TestDetectionTracker_Reset(t *testing.T) {
	t.Parallel()
	tr := newTestTracker()
	for i := int64(1); i <= 4; i++ {
		tr.Update(true, i*33)
	}
	tr.Reset()
	once := tr.State()
	tr.Reset()
	assert.Equal(t, once, tr.State())
	assert.Equal(t, DetectionState{}, once)
}
