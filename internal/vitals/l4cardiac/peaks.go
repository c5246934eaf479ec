package l4cardiac

import (
	"time"

	"github.com/banshee-data/vitals.report/internal/timeutil"
	"github.com/banshee-data/vitals.report/internal/units"
	"github.com/banshee-data/vitals.report/internal/vitals/ring"
	"gonum.org/v1/gonum/stat"
)

// Beat is a declared time-domain peak.
type Beat struct {
	TimestampMs int64
	IntervalMs  float64 // Milliseconds since the previous beat; 0 for the first
}

// PeakDetector declares a beat when the normalised signal crosses a fixed
// threshold outside the refractory period, and keeps the resulting R-R
// interval series.
type PeakDetector struct {
	threshold  float64
	refractory time.Duration

	lastPeakMs int64
	hasPeak    bool
	rr         *ring.Buffer[float64]
}

// NewPeakDetector returns a detector with no beats.
func NewPeakDetector(threshold float64, refractory time.Duration) *PeakDetector {
	return &PeakDetector{
		threshold:  threshold,
		refractory: refractory,
		rr:         ring.New[float64](RRCapacity),
	}
}

// Process examines one normalised sample at tsMs and reports a beat when one
// is declared.
func (d *PeakDetector) Process(value float64, tsMs int64) (Beat, bool) {
	if value <= d.threshold {
		return Beat{}, false
	}
	if d.hasPeak && !timeutil.ElapsedMillis(tsMs, d.lastPeakMs, d.refractory) {
		return Beat{}, false
	}

	b := Beat{TimestampMs: tsMs}
	if d.hasPeak {
		b.IntervalMs = float64(tsMs - d.lastPeakMs)
		d.rr.Push(b.IntervalMs)
	}
	d.lastPeakMs = tsMs
	d.hasPeak = true
	return b, true
}

// Intervals returns the R-R series, oldest first.
func (d *PeakDetector) Intervals() []float64 { return d.rr.Values() }

// LastPeak returns the timestamp of the most recent beat.
func (d *PeakDetector) LastPeak() (int64, bool) { return d.lastPeakMs, d.hasPeak }

// Reset forgets all beats.
func (d *PeakDetector) Reset() {
	d.lastPeakMs = 0
	d.hasPeak = false
	d.rr.Clear()
}

// Source identifies where a heart-rate candidate came from.
type Source string

// Candidate sources.
const (
	SourceTimeDomain Source = "time"
	SourceSpectral   Source = "spectral"
	SourceFused      Source = "fused"
)

// Candidate is a raw heart-rate estimate awaiting smoothing.
type Candidate struct {
	BPM        float64
	Confidence float64
	Source     Source
}

// TimeDomainCandidate derives a candidate from the newest R-R intervals:
// the rate of their mean interval, with confidence falling as they vary.
// At least two intervals are required.
func TimeDomainCandidate(intervals []float64) (Candidate, bool) {
	if len(intervals) < 2 {
		return Candidate{}, false
	}
	if len(intervals) > TimeDomainWindow {
		intervals = intervals[len(intervals)-TimeDomainWindow:]
	}
	mean, std := stat.PopMeanStdDev(intervals, nil)
	if mean <= 0 {
		return Candidate{}, false
	}
	return Candidate{
		BPM:        units.BPMFromIntervalMs(mean),
		Confidence: units.Clamp(1-std/mean, 0, 1),
		Source:     SourceTimeDomain,
	}, true
}
