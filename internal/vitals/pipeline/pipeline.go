package pipeline

import (
	"fmt"
	"math"

	"github.com/banshee-data/vitals.report/internal/monitoring"
	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
	"github.com/banshee-data/vitals.report/internal/vitals/l2signal"
	"github.com/banshee-data/vitals.report/internal/vitals/l3validity"
	"github.com/banshee-data/vitals.report/internal/vitals/l4cardiac"
	"github.com/banshee-data/vitals.report/internal/vitals/l5pressure"
)

// Pipeline turns frames into vital-signs snapshots, one tick at a time.
type Pipeline struct {
	model l2signal.Model

	conditioner *l2signal.Conditioner
	samples     *l2signal.SampleBuffer
	normalizer  *l2signal.Normalizer

	validator *l3validity.Validator

	peaks      *l4cardiac.PeakDetector
	spectral   *l4cardiac.SpectralEstimator
	bpm        *l4cardiac.BPMManager
	spo2       *l4cardiac.SpO2Estimator
	arrhythmia *l4cardiac.ArrhythmiaDetector

	pressure *l5pressure.Estimator

	scheduler *monitoring.Scheduler

	last Snapshot
}

// New validates cfg and builds a pipeline in its initial state.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	validator, err := l3validity.NewValidator(cfg.Validity)
	if err != nil {
		return nil, err
	}
	pressure, err := l5pressure.NewEstimator(cfg.Pressure)
	if err != nil {
		return nil, err
	}
	scheduler, err := monitoring.NewScheduler(cfg.Scheduler, cfg.Clock)
	if err != nil {
		return nil, err
	}

	c := cfg.Cardiac
	return &Pipeline{
		model:       cfg.Model,
		conditioner: l2signal.NewConditioner(l2signal.DefaultConditionerWindow),
		samples:     l2signal.NewSampleBuffer(l2signal.DefaultBufferCapacity),
		normalizer:  l2signal.NewNormalizer(l2signal.DefaultNormalizeWindow),
		validator:   validator,
		peaks:       l4cardiac.NewPeakDetector(c.PeakThreshold, c.RefractoryPeriod),
		spectral:    l4cardiac.NewSpectralEstimator(c.SpectralWindow, c.SampleRateHz, c.SpectralMagnitudeFloor),
		bpm:         l4cardiac.NewBPMManager(c.BPMMinConfidence),
		spo2:        l4cardiac.NewSpO2Estimator(),
		arrhythmia:  l4cardiac.NewArrhythmiaDetector(c),
		pressure:    pressure,
		scheduler:   scheduler,
		last:        EmptySnapshot(),
	}, nil
}

// Process runs one tick. Every tick conditions and buffers the sample; on
// ticks the scheduler throttles, the previous snapshot is returned as is.
func (p *Pipeline) Process(f l1frames.Frame) Snapshot {
	start := p.scheduler.BeginTick()
	level := p.scheduler.LevelConfig()

	filtered := p.conditioner.Filter(f.RawValue)
	if p.model != nil && level.Features.ModelFiltering {
		filtered = p.model.Apply(filtered)
	}
	p.samples.Add(l2signal.Sample{Value: filtered, TimestampMs: f.TimestampMs})
	p.spectral.Push(filtered)
	p.spo2.Add(filtered)
	p.pressure.Add(filtered)
	normalized := p.normalizer.Normalize(filtered)

	if !p.scheduler.ShouldProcessFrame() {
		return p.last
	}

	features := level.Features
	verdict := p.validator.Assess(f, features.AdaptiveThresholds, features.TemporalValidation)
	if verdict.Changed {
		diagf("finger detected=%t at %dms", verdict.FingerDetected, f.TimestampMs)
	}

	snap := Snapshot{
		FingerDetected: verdict.FingerDetected,
		TimestampMs:    f.TimestampMs,
		FailedRules:    verdict.Outcome.FailedRules,
	}

	var (
		spo2 l4cardiac.SpO2Result
		arr  l4cardiac.ArrhythmiaResult
		bp   l5pressure.Result
	)
	if verdict.FingerDetected {
		intervals, lastPeak, hasPeak := p.beats(f, normalized)

		var candidates []l4cardiac.Candidate
		if c, ok := l4cardiac.TimeDomainCandidate(intervals); ok {
			candidates = append(candidates, c)
		}
		if features.Spectral {
			if c, ok := p.spectral.Estimate(); ok {
				candidates = append(candidates, c)
			}
		}
		if c, ok := l4cardiac.Fuse(candidates...); ok {
			p.bpm.Update(c)
		}

		spo2 = p.spo2.Estimate()
		arr = p.arrhythmia.Update(f.TimestampMs, intervals, lastPeak, hasPeak)
		bp = p.pressure.Estimate(float64(p.bpm.State().BPM), level.BufferSize)
	} else {
		p.bpm.Decay()
		spo2 = p.spo2.Hold()
		arr = p.arrhythmia.Update(f.TimestampMs, nil, 0, false)
		bp = p.pressure.Hold()
	}

	state := p.bpm.State()
	snap.HeartRate = state.BPM
	snap.Confidence = state.Confidence
	snap.SpO2 = spo2.Value
	snap.Pressure = bp.String()
	if bp.Available {
		snap.Systolic, snap.Diastolic = bp.Systolic, bp.Diastolic
	}
	snap.PressureAdvisory = bp.Available && !bp.Calibrated
	snap.ArrhythmiaStatus = arr.Status
	snap.ArrhythmiaCount = arr.Count
	snap.Quality = quality(p.validator.Gate().RecentSuccessRate(), state.Confidence, verdict.FingerDetected)

	p.scheduler.EndTick(start)
	snap.Level = p.scheduler.Level()

	tracef("ts=%d raw=%.4f filtered=%.4f norm=%.3f hr=%d spo2=%d bp=%s valid=%t",
		f.TimestampMs, f.RawValue, filtered, normalized, snap.HeartRate, snap.SpO2, snap.Pressure, verdict.Outcome.IsValid)

	p.last = snap
	return snap
}

// beats returns the R-R series and most recent beat, taken from the frame
// when supplied externally and from the time-domain detector otherwise.
func (p *Pipeline) beats(f l1frames.Frame, normalized float64) (intervals []float64, lastPeak int64, hasPeak bool) {
	if f.RR != nil {
		if f.RR.LastPeakMs != nil {
			lastPeak, hasPeak = *f.RR.LastPeakMs, true
		}
		return f.RR.Intervals, lastPeak, hasPeak
	}
	if b, ok := p.peaks.Process(normalized, f.TimestampMs); ok {
		tracef("beat at %dms interval=%.0fms", b.TimestampMs, b.IntervalMs)
	}
	lastPeak, hasPeak = p.peaks.LastPeak()
	return p.peaks.Intervals(), lastPeak, hasPeak
}

// quality blends the recent gate pass rate with heart-rate confidence into
// a 0-100 score. It is 0 without a finger.
func quality(successRate, confidence float64, detected bool) int {
	if !detected {
		return 0
	}
	return int(math.Round(60*successRate + 40*confidence))
}

// CalibrateBloodPressure records a reference cuff reading.
func (p *Pipeline) CalibrateBloodPressure(systolic, diastolic float64, age int) error {
	if err := p.pressure.Calibrate(systolic, diastolic, age); err != nil {
		return err
	}
	diagf("blood pressure calibrated: %v/%v age %d", systolic, diastolic, age)
	return nil
}

// BloodPressureCalibration returns the active calibration, if any.
func (p *Pipeline) BloodPressureCalibration() (l5pressure.Calibration, bool) {
	return p.pressure.Calibration()
}

// PerformanceStats returns the scheduler's performance summary.
func (p *Pipeline) PerformanceStats() monitoring.Stats {
	return p.scheduler.Stats()
}

// NoiseFloor returns the calibrated noise floor and whether calibration has
// completed.
func (p *Pipeline) NoiseFloor() (float64, bool) {
	c := p.validator.Calibrator()
	return c.NoiseFloor(), c.IsCalibrated()
}

// Last returns the most recent snapshot.
func (p *Pipeline) Last() Snapshot { return p.last }

// Waveform returns up to n of the newest filtered samples, oldest first.
func (p *Pipeline) Waveform(n int) []l2signal.Sample { return p.samples.Samples(n) }

// Reset returns every component to its post-construction state.
func (p *Pipeline) Reset() {
	p.conditioner.Reset()
	p.samples.Reset()
	p.normalizer.Reset()
	p.validator.Reset()
	p.peaks.Reset()
	p.spectral.Reset()
	p.bpm.Reset()
	p.spo2.Reset()
	p.arrhythmia.Reset()
	p.pressure.Reset()
	p.scheduler.Reset()
	p.last = EmptySnapshot()
	opsf("pipeline reset")
}
