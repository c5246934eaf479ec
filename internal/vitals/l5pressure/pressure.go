package l5pressure

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/vitals.report/internal/units"
	"github.com/banshee-data/vitals.report/internal/vitals/ring"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidCalibration is returned when calibration values are out of range.
var ErrInvalidCalibration = errors.New("invalid blood pressure calibration")

// Data requirements.
const (
	MinSamples = 60
	MinPeaks   = 3
	MinPTT     = 5
	pttHistory = 20
)

// Model constants.
const (
	defaultSystolic    = 120.0
	defaultAge         = 40
	defaultBaselinePTT = 800.0
	pttExponent        = 0.5
	ageCoefficient     = 0.4
	hrSystolicCoeff    = 0.3
	hrDiastolicCoeff   = 0.15
	referenceHR        = 70.0
	diastolicRatio     = 0.65
	pulseMargin        = 20.0

	minSystolic  = 90.0
	maxSystolic  = 180.0
	minDiastolic = 60.0
	maxDiastolic = 110.0
)

// Calibration is a reference cuff reading taken at a known PTT.
type Calibration struct {
	Systolic    float64
	Diastolic   float64
	Age         int
	BaselinePTT float64 // Milliseconds
}

// Result is one blood-pressure estimate.
type Result struct {
	Systolic   int
	Diastolic  int
	Confidence float64
	PTT        float64 // Mean adjusted pulse transit time, milliseconds
	Morphology float64
	Available  bool // False when no estimate or fallback exists
	Calibrated bool // False: the estimate rests on population defaults
	Fallback   bool // The last valid result, returned for lack of data
}

// String renders "SYS/DIA", or the unavailable marker.
func (r Result) String() string {
	if !r.Available {
		return units.FormatPressure(0, 0)
	}
	return units.FormatPressure(r.Systolic, r.Diastolic)
}

// Estimator derives blood pressure from pulse transit time.
type Estimator struct {
	cfg     Config
	samples *ring.Buffer[float64]
	ptt     *ring.Buffer[float64]

	cal        Calibration
	calibrated bool

	lastValid Result
	hasValid  bool
}

// NewEstimator validates cfg and returns an uncalibrated estimator.
func NewEstimator(cfg Config) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pressure config: %w", err)
	}
	return &Estimator{
		cfg:     cfg,
		samples: ring.New[float64](cfg.BufferSize),
		ptt:     ring.New[float64](pttHistory),
	}, nil
}

// Add buffers one filtered sample.
func (e *Estimator) Add(v float64) { e.samples.Push(v) }

// Calibrate records a reference reading. The current mean PTT becomes the
// baseline when enough PTT values are buffered.
func (e *Estimator) Calibrate(systolic, diastolic float64, age int) error {
	if err := checkCalibration(systolic, diastolic, age); err != nil {
		opsf("rejected calibration: %v", err)
		return err
	}

	baseline := defaultBaselinePTT
	if e.ptt.Len() >= MinPTT {
		baseline = stat.Mean(e.ptt.Values(), nil)
	}
	e.cal = Calibration{Systolic: systolic, Diastolic: diastolic, Age: age, BaselinePTT: baseline}
	e.calibrated = true
	diagf("calibrated: %v/%v age %d baseline PTT %.1fms", systolic, diastolic, age, baseline)
	return nil
}

func checkCalibration(systolic, diastolic float64, age int) error {
	switch {
	case systolic < 70 || systolic > 250:
		return fmt.Errorf("%w: systolic %v outside [70, 250]", ErrInvalidCalibration, systolic)
	case diastolic < 40 || diastolic > 150:
		return fmt.Errorf("%w: diastolic %v outside [40, 150]", ErrInvalidCalibration, diastolic)
	case diastolic >= systolic:
		return fmt.Errorf("%w: diastolic %v not below systolic %v", ErrInvalidCalibration, diastolic, systolic)
	case age < 1 || age > 120:
		return fmt.Errorf("%w: age %d outside [1, 120]", ErrInvalidCalibration, age)
	}
	return nil
}

// Calibration returns the active calibration.
func (e *Estimator) Calibration() (Calibration, bool) { return e.cal, e.calibrated }

// Estimate computes blood pressure over the newest window samples at the
// given heart rate. A non-positive heartRate applies no rate correction.
func (e *Estimator) Estimate(heartRate float64, window int) Result {
	x := e.samples.Tail(window)
	if len(x) < MinSamples {
		return e.fallback()
	}
	peaks := detectPeaks(x)
	if len(peaks) < MinPeaks {
		return e.fallback()
	}

	var spacing float64
	for i := 1; i < len(peaks); i++ {
		spacing += float64(peaks[i] - peaks[i-1])
	}
	spacing /= float64(len(peaks) - 1)
	morph := morphologyFactor(x, peaks)
	e.ptt.Push(units.SamplesToMs(spacing, e.cfg.SampleRateHz) * morph)
	if e.ptt.Len() < MinPTT {
		return e.fallback()
	}

	ptts := e.ptt.Values()
	avgPTT, stdPTT := stat.PopMeanStdDev(ptts, nil)
	sys, dia := e.model(avgPTT, heartRate)

	stability := 0.0
	if avgPTT > 0 {
		stability = units.Clamp(1-stdPTT/avgPTT, 0, 1)
	}
	res := Result{
		Systolic:   int(math.Round(sys)),
		Diastolic:  int(math.Round(dia)),
		Confidence: 0.7*stability + 0.3*math.Min(float64(len(peaks))/10, 1),
		PTT:        avgPTT,
		Morphology: morph,
		Available:  true,
		Calibrated: e.calibrated,
	}
	if res.Confidence > e.cfg.ConfidenceThreshold {
		e.lastValid = res
		e.hasValid = true
	}
	tracef("ptt=%.1fms morph=%.2f peaks=%d -> %s conf=%.2f", avgPTT, morph, len(peaks), res, res.Confidence)
	return res
}

// model maps mean PTT and heart rate to systolic and diastolic pressure,
// clamped to physiological bounds with a minimum pulse pressure.
func (e *Estimator) model(avgPTT, heartRate float64) (sys, dia float64) {
	baseSys, age, baseline := defaultSystolic, defaultAge, defaultBaselinePTT
	if e.calibrated {
		baseSys, age, baseline = e.cal.Systolic, e.cal.Age, e.cal.BaselinePTT
	}
	hrDelta := 0.0
	if heartRate > 0 {
		hrDelta = heartRate - referenceHR
	}

	sys = baseSys*math.Pow(baseline/avgPTT, pttExponent) +
		float64(age-defaultAge)*ageCoefficient +
		hrDelta*hrSystolicCoeff
	sys = units.Clamp(sys, minSystolic, maxSystolic)

	dia = diastolicRatio*sys + hrDelta*hrDiastolicCoeff
	dia = units.Clamp(dia, minDiastolic, maxDiastolic)
	if dia >= sys-pulseMargin {
		dia = sys - pulseMargin
	}
	return sys, dia
}

// Hold returns the last valid result, flagged as a fallback, without
// estimating. It is used while no finger is present.
func (e *Estimator) Hold() Result { return e.fallback() }

func (e *Estimator) fallback() Result {
	if !e.hasValid {
		return Result{Calibrated: e.calibrated}
	}
	r := e.lastValid
	r.Fallback = true
	r.Calibrated = e.calibrated
	return r
}

// LastValid returns the most recent result that cleared the confidence
// threshold.
func (e *Estimator) LastValid() (Result, bool) { return e.lastValid, e.hasValid }

// Reset clears buffers, the fallback and the calibration.
func (e *Estimator) Reset() {
	e.samples.Clear()
	e.ptt.Clear()
	e.cal = Calibration{}
	e.calibrated = false
	e.lastValid = Result{}
	e.hasValid = false
}
