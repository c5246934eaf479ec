package l4cardiac

import (
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/vitals.report/internal/timeutil"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ArrhythmiaStatus is the externally visible arrhythmia state.
type ArrhythmiaStatus int

// Arrhythmia statuses.
const (
	ArrhythmiaLearning ArrhythmiaStatus = iota
	ArrhythmiaNone
	ArrhythmiaDetected
)

func (s ArrhythmiaStatus) String() string {
	switch s {
	case ArrhythmiaNone:
		return "NO ARRHYTHMIA"
	case ArrhythmiaDetected:
		return "ARRHYTHMIA DETECTED"
	default:
		return "--"
	}
}

// MarshalText renders the display string.
func (s ArrhythmiaStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a display string.
func (s *ArrhythmiaStatus) UnmarshalText(b []byte) error {
	for _, c := range []ArrhythmiaStatus{ArrhythmiaLearning, ArrhythmiaNone, ArrhythmiaDetected} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown arrhythmia status %q", b)
}

// ArrhythmiaResult is the detector state after one tick.
type ArrhythmiaResult struct {
	Status    ArrhythmiaStatus
	RMSSD     float64
	Premature bool
	Count     int // Onsets observed this session
}

// ArrhythmiaDetector flags irregular rhythm from R-R variability and
// premature beats once a learning phase has elapsed.
type ArrhythmiaDetector struct {
	learning      time.Duration
	rmssdLimit    float64
	prematureFrac float64

	started    bool
	startMs    int64
	lastPeakMs int64
	hasPeak    bool
	lastWindow []float64 // Last evaluated window, for batches without a beat time

	detected  bool
	rmssd     float64
	premature bool
	count     int
}

// NewArrhythmiaDetector returns a detector configured from cfg.
func NewArrhythmiaDetector(cfg Config) *ArrhythmiaDetector {
	return &ArrhythmiaDetector{
		learning:      cfg.LearningPeriod,
		rmssdLimit:    cfg.RMSSDThresholdMs,
		prematureFrac: cfg.PrematureBeatFraction,
	}
}

// Update advances the detector to nowMs. With hasPeak the state is
// recomputed only when lastPeakMs identifies a beat not seen before. Without
// it, a batch is new when its newest window differs from the last one
// evaluated. Otherwise the state is held.
func (d *ArrhythmiaDetector) Update(nowMs int64, intervals []float64, lastPeakMs int64, hasPeak bool) ArrhythmiaResult {
	if !d.started {
		d.started = true
		d.startMs = nowMs
	}
	if !timeutil.ElapsedMillis(nowMs, d.startMs, d.learning) {
		return ArrhythmiaResult{Status: ArrhythmiaLearning}
	}
	if len(intervals) < ArrhythmiaWindow {
		return d.result()
	}
	window := intervals[len(intervals)-ArrhythmiaWindow:]

	if hasPeak {
		if d.hasPeak && lastPeakMs == d.lastPeakMs {
			return d.result()
		}
		if d.hasPeak && lastPeakMs < d.lastPeakMs {
			opsf("last beat moved backwards: %dms after %dms", lastPeakMs, d.lastPeakMs)
		}
		d.lastPeakMs = lastPeakMs
		d.hasPeak = true
	} else if d.lastWindow != nil && floats.Equal(window, d.lastWindow) {
		return d.result()
	}

	d.lastWindow = append(d.lastWindow[:0], window...)
	d.evaluate(window)
	return d.result()
}

func (d *ArrhythmiaDetector) evaluate(window []float64) {
	d.rmssd = RMSSD(window)
	mean := stat.Mean(window, nil)
	last := window[len(window)-1]
	d.premature = mean > 0 && math.Abs(last-mean)/mean > d.prematureFrac

	detected := d.rmssd > d.rmssdLimit && d.premature
	if detected != d.detected {
		if detected {
			d.count++
			diagf("arrhythmia detected: rmssd=%.1fms last=%.0fms mean=%.0fms (onset %d)", d.rmssd, last, mean, d.count)
		} else {
			diagf("arrhythmia cleared: rmssd=%.1fms", d.rmssd)
		}
	}
	d.detected = detected
}

func (d *ArrhythmiaDetector) result() ArrhythmiaResult {
	status := ArrhythmiaNone
	if d.detected {
		status = ArrhythmiaDetected
	}
	return ArrhythmiaResult{Status: status, RMSSD: d.rmssd, Premature: d.premature, Count: d.count}
}

// Reset returns the detector to its post-construction state; the next Update
// starts a new learning phase.
func (d *ArrhythmiaDetector) Reset() {
	*d = ArrhythmiaDetector{
		learning:      d.learning,
		rmssdLimit:    d.rmssdLimit,
		prematureFrac: d.prematureFrac,
	}
}

// RMSSD is the root mean square of successive differences of intervals.
func RMSSD(intervals []float64) float64 {
	if len(intervals) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(intervals); i++ {
		d := intervals[i] - intervals[i-1]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(intervals)-1))
}
