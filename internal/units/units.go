// Package units provides shared conversions between beats, intervals and
// sample counts used by the vitals estimators.
package units

import (
	"fmt"
	"math"
)

// Unavailable is the display form of a measurement that cannot be produced.
const Unavailable = "--"

// BPMFromIntervalMs converts an inter-beat interval to beats per minute.
// Non-positive intervals yield 0.
func BPMFromIntervalMs(intervalMs float64) float64 {
	if intervalMs <= 0 {
		return 0
	}
	return 60000 / intervalMs
}

// IntervalMsFromBPM converts beats per minute to an inter-beat interval.
// Non-positive rates yield 0.
func IntervalMsFromBPM(bpm float64) float64 {
	if bpm <= 0 {
		return 0
	}
	return 60000 / bpm
}

// SamplesToMs converts a sample count at rateHz to milliseconds.
func SamplesToMs(samples, rateHz float64) float64 {
	if rateHz <= 0 {
		return 0
	}
	return samples * 1000 / rateHz
}

// BPMToBin maps a rate in BPM to the nearest DFT bin index for a window of
// n samples at rateHz.
func BPMToBin(bpm float64, n int, rateHz float64) float64 {
	return bpm / 60 * float64(n) / rateHz
}

// BinToBPM maps a DFT bin index back to beats per minute.
func BinToBPM(bin float64, n int, rateHz float64) float64 {
	if n <= 0 {
		return 0
	}
	return bin * rateHz / float64(n) * 60
}

// FormatPressure renders a systolic/diastolic pair as "SYS/DIA". Zero values
// render as the unavailable marker.
func FormatPressure(systolic, diastolic int) string {
	if systolic <= 0 || diastolic <= 0 {
		return Unavailable + "/" + Unavailable
	}
	return fmt.Sprintf("%d/%d", systolic, diastolic)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
