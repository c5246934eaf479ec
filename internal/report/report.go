// Package report renders recorded vitals traces as PNG charts.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/vitals.report/internal/vitals/l2signal"
	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
)

// ErrEmptyTrace is returned when there is nothing to plot.
var ErrEmptyTrace = errors.New("report: empty trace")

const (
	plotWidth  = 14 * vg.Inch
	plotHeight = 6 * vg.Inch
)

var (
	heartRateColor = color.RGBA{R: 200, G: 30, B: 45, A: 255}
	spo2Color      = color.RGBA{R: 30, G: 90, B: 200, A: 255}
	qualityColor   = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	waveColor      = color.RGBA{R: 170, G: 20, B: 20, A: 255}
)

// Trace accumulates snapshots and filtered samples over a run.
type Trace struct {
	mu        sync.Mutex
	snapshots []pipeline.Snapshot
	samples   []l2signal.Sample
}

// NewTrace returns an empty trace.
func NewTrace() *Trace { return &Trace{} }

// AddSnapshot appends a snapshot. Consecutive snapshots with the same
// timestamp are recorded once.
func (t *Trace) AddSnapshot(s pipeline.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.snapshots); n > 0 && t.snapshots[n-1].TimestampMs == s.TimestampMs {
		return
	}
	t.snapshots = append(t.snapshots, s)
}

// AddSample appends a filtered sample. A sample repeating the previous
// timestamp is dropped.
func (t *Trace) AddSample(s l2signal.Sample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.samples); n > 0 && t.samples[n-1].TimestampMs == s.TimestampMs {
		return
	}
	t.samples = append(t.samples, s)
}

// Len returns the number of snapshots and samples recorded.
func (t *Trace) Len() (snapshots, samples int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.snapshots), len(t.samples)
}

func seconds(ms, originMs int64) float64 { return float64(ms-originMs) / 1000 }

func newLine(pts plotter.XYs, c color.Color) (*plotter.Line, error) {
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	l.Color = c
	l.Width = vg.Points(1)
	return l, nil
}

// VitalsPlot charts heart rate, SpO2 and signal quality against time.
// Ticks without a finger are left as gaps.
func (t *Trace) VitalsPlot(title string) (*plot.Plot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.snapshots) == 0 {
		return nil, ErrEmptyTrace
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "BPM / % / quality"
	p.Y.Min = 0
	p.Y.Max = 130

	origin := t.snapshots[0].TimestampMs
	hr := make(plotter.XYs, 0, len(t.snapshots))
	spo2 := make(plotter.XYs, 0, len(t.snapshots))
	quality := make(plotter.XYs, 0, len(t.snapshots))
	for _, s := range t.snapshots {
		x := seconds(s.TimestampMs, origin)
		quality = append(quality, plotter.XY{X: x, Y: float64(s.Quality)})
		if !s.FingerDetected {
			continue
		}
		if s.HeartRate > 0 {
			hr = append(hr, plotter.XY{X: x, Y: float64(s.HeartRate)})
		}
		if s.SpO2 > 0 {
			spo2 = append(spo2, plotter.XY{X: x, Y: float64(s.SpO2)})
		}
	}

	for _, series := range []struct {
		label string
		pts   plotter.XYs
		c     color.Color
	}{
		{"Heart rate (BPM)", hr, heartRateColor},
		{"SpO2 (%)", spo2, spo2Color},
		{"Quality", quality, qualityColor},
	} {
		if len(series.pts) == 0 {
			continue
		}
		l, err := newLine(series.pts, series.c)
		if err != nil {
			return nil, err
		}
		p.Add(l)
		p.Legend.Add(series.label, l)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WaveformPlot charts the filtered PPG samples against time.
func (t *Trace) WaveformPlot(title string) (*plot.Plot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.samples) == 0 {
		return nil, ErrEmptyTrace
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Filtered PPG"

	origin := t.samples[0].TimestampMs
	pts := make(plotter.XYs, len(t.samples))
	for i, s := range t.samples {
		pts[i] = plotter.XY{X: seconds(s.TimestampMs, origin), Y: s.Value}
	}
	l, err := newLine(pts, waveColor)
	if err != nil {
		return nil, err
	}
	p.Add(l)
	return p, nil
}

// WritePNG renders p as a PNG to w.
func WritePNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// fileStem reduces name to letters, digits, dot, underscore and dash so that
// recording or session names cannot place files outside dir.
func fileStem(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case b.Len() >= 64:
			return b.String()
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == '.' && b.Len() > 0:
			b.WriteRune(r)
		default:
			if s := b.String(); s != "" && !strings.HasSuffix(s, "_") {
				b.WriteByte('_')
			}
		}
	}
	if b.Len() == 0 {
		return "trace"
	}
	return b.String()
}

// SavePNGs writes <name>_vitals.png and, when samples were recorded,
// <name>_waveform.png into dir. It returns the paths written.
func (t *Trace) SavePNGs(dir, name string) ([]string, error) {
	name = fileStem(name)
	vitals, err := t.VitalsPlot(name + " vitals")
	if err != nil {
		return nil, err
	}
	var paths []string
	path := filepath.Join(dir, name+"_vitals.png")
	if err := vitals.Save(plotWidth, plotHeight, path); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", path, err)
	}
	paths = append(paths, path)

	wave, err := t.WaveformPlot(name + " waveform")
	if errors.Is(err, ErrEmptyTrace) {
		return paths, nil
	}
	if err != nil {
		return paths, err
	}
	path = filepath.Join(dir, name+"_waveform.png")
	if err := wave.Save(plotWidth, plotHeight, path); err != nil {
		return paths, fmt.Errorf("failed to save %s: %w", path, err)
	}
	return append(paths, path), nil
}
