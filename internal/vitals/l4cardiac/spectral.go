package l4cardiac

import (
	"math"
	"math/cmplx"

	"github.com/banshee-data/vitals.report/internal/units"
	"github.com/banshee-data/vitals.report/internal/vitals/ring"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/stat"
)

// SpectralEstimator finds the dominant cardiac frequency in a fixed window of
// filtered samples.
type SpectralEstimator struct {
	rateHz float64
	floor  float64
	buf    *ring.Buffer[float64]
	fft    *fourier.FFT

	loBin int
	hiBin int
}

// NewSpectralEstimator returns an estimator over n samples at rateHz.
func NewSpectralEstimator(n int, rateHz, magnitudeFloor float64) *SpectralEstimator {
	lo := int(math.Ceil(units.BPMToBin(SpectralMinBPM, n, rateHz)))
	hi := int(math.Floor(units.BPMToBin(SpectralMaxBPM, n, rateHz)))
	if hi > n/2-1 {
		hi = n/2 - 1
	}
	return &SpectralEstimator{
		rateHz: rateHz,
		floor:  magnitudeFloor,
		buf:    ring.New[float64](n),
		fft:    fourier.NewFFT(n),
		loBin:  lo,
		hiBin:  hi,
	}
}

// Push appends a filtered sample.
func (e *SpectralEstimator) Push(v float64) { e.buf.Push(v) }

// Ready reports whether the window is full.
func (e *SpectralEstimator) Ready() bool { return e.buf.Full() }

// Estimate returns the dominant in-band frequency as a candidate. It reports
// false until the window is full, or when the peak magnitude is below the
// floor.
func (e *SpectralEstimator) Estimate() (Candidate, bool) {
	if !e.buf.Full() {
		return Candidate{}, false
	}
	x := e.buf.Values()
	mean := stat.Mean(x, nil)
	for i := range x {
		x[i] -= mean
	}
	window.Hamming(x)

	coeffs := e.fft.Coefficients(nil, x)
	n := e.buf.Cap()

	peakBin := -1
	var peak, sum float64
	for k := e.loBin; k <= e.hiBin; k++ {
		m := cmplx.Abs(coeffs[k])
		sum += m
		if m > peak {
			peak = m
			peakBin = k
		}
	}
	if peakBin < 0 || peak < e.floor {
		return Candidate{}, false
	}
	bandMean := sum / float64(e.hiBin-e.loBin+1)

	c := Candidate{
		BPM:        units.BinToBPM(float64(peakBin), n, e.rateHz),
		Confidence: math.Min(peak/(3*bandMean), 1),
		Source:     SourceSpectral,
	}
	tracef("spectral peak bin=%d magnitude=%.3f bpm=%.1f confidence=%.2f", peakBin, peak, c.BPM, c.Confidence)
	return c, true
}

// Reset empties the window.
func (e *SpectralEstimator) Reset() { e.buf.Clear() }

// agreementFraction is the relative BPM difference within which two
// candidates are averaged rather than competing.
const agreementFraction = 0.15

// disagreementPenalty scales the confidence of the winning candidate when
// the sources disagree.
const disagreementPenalty = 0.8

// Fuse combines the available candidates. Agreeing candidates are averaged
// by confidence; disagreeing ones yield the more confident with a reduced
// confidence.
func Fuse(candidates ...Candidate) (Candidate, bool) {
	var present []Candidate
	for _, c := range candidates {
		if c.BPM > 0 {
			present = append(present, c)
		}
	}
	switch len(present) {
	case 0:
		return Candidate{}, false
	case 1:
		return present[0], true
	}

	a, b := present[0], present[1]
	if math.Abs(a.BPM-b.BPM)/math.Max(a.BPM, b.BPM) <= agreementFraction {
		w := a.Confidence + b.Confidence
		if w <= 0 {
			return Candidate{BPM: (a.BPM + b.BPM) / 2, Source: SourceFused}, true
		}
		return Candidate{
			BPM:        (a.BPM*a.Confidence + b.BPM*b.Confidence) / w,
			Confidence: math.Max(a.Confidence, b.Confidence),
			Source:     SourceFused,
		}, true
	}
	best := a
	if b.Confidence > a.Confidence {
		best = b
	}
	best.Confidence *= disagreementPenalty
	return best, true
}
