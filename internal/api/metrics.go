package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exports the live snapshot and scheduler stats at scrape time.
type Collector struct {
	runner Runner

	heartRate      *prometheus.Desc
	confidence     *prometheus.Desc
	spo2           *prometheus.Desc
	pressure       *prometheus.Desc
	advisory       *prometheus.Desc
	arrhythmias    *prometheus.Desc
	fingerDetected *prometheus.Desc
	quality        *prometheus.Desc
	fps            *prometheus.Desc
	processingMs   *prometheus.Desc
	dropRate       *prometheus.Desc
	level          *prometheus.Desc
}

// NewCollector returns a collector reading from runner.
func NewCollector(runner Runner) *Collector {
	return &Collector{
		runner:         runner,
		heartRate:      prometheus.NewDesc("vitals_heart_rate_bpm", "Heart rate, 0 when unknown", nil, nil),
		confidence:     prometheus.NewDesc("vitals_heart_rate_confidence", "Heart-rate confidence (0 to 1)", nil, nil),
		spo2:           prometheus.NewDesc("vitals_spo2_percent", "Oxygen saturation, 0 when unknown", nil, nil),
		pressure:       prometheus.NewDesc("vitals_blood_pressure_mmhg", "Estimated blood pressure, 0 when unavailable", []string{"phase"}, nil),
		advisory:       prometheus.NewDesc("vitals_blood_pressure_advisory", "1 when the pressure estimate is uncalibrated", nil, nil),
		arrhythmias:    prometheus.NewDesc("vitals_arrhythmia_events", "Irregular beats seen since the last reset", nil, nil),
		fingerDetected: prometheus.NewDesc("vitals_finger_detected", "1 while a fingertip is detected", nil, nil),
		quality:        prometheus.NewDesc("vitals_signal_quality", "Signal quality score (0 to 100)", nil, nil),
		fps:            prometheus.NewDesc("vitals_pipeline_fps", "Frame arrival rate", nil, nil),
		processingMs:   prometheus.NewDesc("vitals_pipeline_processing_ms", "Mean tick processing time", nil, nil),
		dropRate:       prometheus.NewDesc("vitals_pipeline_drop_rate_percent", "Share of late frame arrivals", nil, nil),
		level:          prometheus.NewDesc("vitals_pipeline_level", "Active performance level", []string{"level"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.heartRate, c.confidence, c.spo2, c.pressure, c.advisory, c.arrhythmias,
		c.fingerDetected, c.quality, c.fps, c.processingMs, c.dropRate, c.level,
	} {
		ch <- d
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.runner.Latest()
	perf := c.runner.Performance()

	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	gauge(c.heartRate, float64(snap.HeartRate))
	gauge(c.confidence, snap.Confidence)
	gauge(c.spo2, float64(snap.SpO2))
	gauge(c.pressure, float64(snap.Systolic), "systolic")
	gauge(c.pressure, float64(snap.Diastolic), "diastolic")
	gauge(c.advisory, boolGauge(snap.PressureAdvisory))
	gauge(c.arrhythmias, float64(snap.ArrhythmiaCount))
	gauge(c.fingerDetected, boolGauge(snap.FingerDetected))
	gauge(c.quality, float64(snap.Quality))
	gauge(c.fps, perf.FPS)
	gauge(c.processingMs, perf.AvgProcessingMs)
	gauge(c.dropRate, perf.DropRatePct)
	gauge(c.level, 1, perf.Level.String())
}

// NewMetricsRegistry returns a registry holding the vitals collector plus the
// Go runtime and process collectors.
func NewMetricsRegistry(runner Runner) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(runner),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// MetricsHandler serves reg in the Prometheus exposition format.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
