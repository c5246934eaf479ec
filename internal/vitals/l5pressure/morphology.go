package l5pressure

import (
	"sort"

	"github.com/banshee-data/vitals.report/internal/units"
	"gonum.org/v1/gonum/stat"
)

const (
	// peakHalfWindow is the half-width of the local-maximum test.
	peakHalfWindow = 2
	// minPeakSpacing is the minimum number of samples between peaks,
	// about 180 BPM at 30 Hz.
	minPeakSpacing = 10

	minMorphology = 0.7
	maxMorphology = 1.3
)

// detectPeaks returns indices of local maxima over a five-sample window that
// exceed max(mean, 0.8 x P75), at least minPeakSpacing apart.
func detectPeaks(x []float64) []int {
	if len(x) < 2*peakHalfWindow+1 {
		return nil
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	threshold := max(stat.Mean(x, nil), 0.8*stat.Quantile(0.75, stat.Empirical, sorted, nil))

	var peaks []int
	for i := peakHalfWindow; i < len(x)-peakHalfWindow; i++ {
		if x[i] <= threshold || !isLocalMax(x, i) {
			continue
		}
		if len(peaks) > 0 && i-peaks[len(peaks)-1] < minPeakSpacing {
			continue
		}
		peaks = append(peaks, i)
	}
	return peaks
}

func isLocalMax(x []float64, i int) bool {
	for j := i - peakHalfWindow; j <= i+peakHalfWindow; j++ {
		if x[j] > x[i] {
			return false
		}
	}
	return true
}

// morphologyFactor is the ratio of mean downstroke to mean upstroke duration
// around the given peaks, clamped to [0.7, 1.3]. Peaks whose surrounding
// troughs fall outside the buffer are ignored; with none usable the factor
// is 1.
func morphologyFactor(x []float64, peaks []int) float64 {
	var up, down float64
	n := 0
	for _, p := range peaks {
		start := p
		for start > 0 && x[start-1] < x[start] {
			start--
		}
		end := p
		for end < len(x)-1 && x[end+1] < x[end] {
			end++
		}
		if start == 0 || end == len(x)-1 || start == p || end == p {
			continue
		}
		up += float64(p - start)
		down += float64(end - p)
		n++
	}
	if n == 0 || up == 0 {
		return 1
	}
	return units.Clamp(down/up, minMorphology, maxMorphology)
}
