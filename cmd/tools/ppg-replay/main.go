// Command ppg-replay runs a JSONL frame recording through the vitals
// pipeline offline, printing a per-second summary and optionally writing a
// per-tick CSV and PNG charts.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/vitals.report/internal/config"
	"github.com/banshee-data/vitals.report/internal/framesource"
	"github.com/banshee-data/vitals.report/internal/report"
	"github.com/banshee-data/vitals.report/internal/timeutil"
	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
)

type options struct {
	Tuning    *config.TuningConfig
	CSV       io.Writer // Optional per-tick output
	Summary   io.Writer // Optional per-second output
	Trace     *report.Trace
	StopOnBad bool // Fail on the first malformed line instead of skipping it
}

type result struct {
	Frames    int
	Malformed int
	Last      pipeline.Snapshot
	Detected  int // Ticks with a finger present
}

var csvHeader = []string{
	"timestamp_ms", "finger_detected", "heart_rate", "confidence", "spo2",
	"systolic", "diastolic", "pressure_advisory", "arrhythmia_status",
	"arrhythmia_count", "quality", "level", "failed_rules",
}

func csvRecord(s pipeline.Snapshot) []string {
	return []string{
		strconv.FormatInt(s.TimestampMs, 10),
		strconv.FormatBool(s.FingerDetected),
		strconv.Itoa(s.HeartRate),
		strconv.FormatFloat(s.Confidence, 'f', 3, 64),
		strconv.Itoa(s.SpO2),
		strconv.Itoa(s.Systolic),
		strconv.Itoa(s.Diastolic),
		strconv.FormatBool(s.PressureAdvisory),
		s.ArrhythmiaStatus.String(),
		strconv.Itoa(s.ArrhythmiaCount),
		strconv.Itoa(s.Quality),
		s.Level.String(),
		strings.Join(s.FailedRules, "|"),
	}
}

// replay drives the pipeline with a clock that follows the recording's
// frame timestamps, so scheduler statistics describe the recording rather
// than this machine.
func replay(r io.Reader, opts options) (result, error) {
	var res result

	cfg := pipeline.DefaultConfig()
	if opts.Tuning != nil {
		cfg = pipeline.ConfigFromTuning(opts.Tuning)
	}
	clock := timeutil.NewMockClock(time.UnixMilli(0))
	cfg.Clock = clock
	p, err := pipeline.New(cfg)
	if err != nil {
		return res, err
	}

	var cw *csv.Writer
	if opts.CSV != nil {
		cw = csv.NewWriter(opts.CSV)
		if err := cw.Write(csvHeader); err != nil {
			return res, err
		}
	}

	dec := framesource.NewDecoder(r)
	var lastSummaryMs int64
	for {
		f, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, l1frames.ErrMalformedFrame) && !opts.StopOnBad {
			res.Malformed++
			log.Printf("skipping %v", err)
			continue
		}
		if err != nil {
			return res, err
		}

		clock.Set(time.UnixMilli(f.TimestampMs))
		snap := p.Process(f)
		res.Frames++
		res.Last = snap
		if snap.FingerDetected {
			res.Detected++
		}

		if cw != nil {
			if err := cw.Write(csvRecord(snap)); err != nil {
				return res, err
			}
		}
		if opts.Trace != nil {
			opts.Trace.AddSnapshot(snap)
			if w := p.Waveform(1); len(w) == 1 {
				opts.Trace.AddSample(w[0])
			}
		}
		if opts.Summary != nil && (res.Frames == 1 || timeutil.ElapsedMillis(f.TimestampMs, lastSummaryMs, time.Second)) {
			lastSummaryMs = f.TimestampMs
			fmt.Fprintf(opts.Summary, "%8.1fs  finger=%-5t hr=%3d spo2=%3d bp=%-7s arrhythmia=%-19s quality=%3d level=%s\n",
				float64(f.TimestampMs)/1000, snap.FingerDetected, snap.HeartRate, snap.SpO2,
				snap.Pressure, snap.ArrhythmiaStatus, snap.Quality, snap.Level)
		}
	}

	if cw != nil {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return res, err
		}
	}
	return res, nil
}

func main() {
	input := flag.String("i", "-", "JSONL recording ('-' for stdin)")
	csvPath := flag.String("csv", "", "write per-tick snapshots to this CSV file")
	plotDir := flag.String("plot", "", "write vitals and waveform PNGs into this directory")
	tuningPath := flag.String("config", "", "tuning JSON overriding the defaults")
	strict := flag.Bool("strict", false, "stop at the first malformed line")
	quiet := flag.Bool("q", false, "suppress the per-second summary")
	flag.Parse()

	var in io.Reader = os.Stdin
	name := "stdin"
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatalf("failed to open %s: %v", *input, err)
		}
		defer f.Close()
		in = f
		name = strings.TrimSuffix(filepath.Base(*input), filepath.Ext(*input))
	}

	opts := options{StopOnBad: *strict}
	if !*quiet {
		opts.Summary = os.Stdout
	}
	if *tuningPath != "" {
		tuning, err := config.LoadTuningConfig(*tuningPath)
		if err != nil {
			log.Fatalf("failed to load tuning: %v", err)
		}
		opts.Tuning = tuning
	}
	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			log.Fatalf("failed to create %s: %v", *csvPath, err)
		}
		defer f.Close()
		opts.CSV = f
	}
	if *plotDir != "" {
		if err := os.MkdirAll(*plotDir, 0o755); err != nil {
			log.Fatalf("failed to create %s: %v", *plotDir, err)
		}
		opts.Trace = report.NewTrace()
	}

	res, err := replay(in, opts)
	if err != nil {
		log.Fatalf("replay failed after %d frames: %v", res.Frames, err)
	}

	if opts.Trace != nil {
		paths, err := opts.Trace.SavePNGs(*plotDir, name)
		if err != nil {
			log.Fatalf("failed to write plots: %v", err)
		}
		for _, p := range paths {
			log.Printf("✓ Created: %s", p)
		}
	}

	last := res.Last
	fmt.Printf("\n%d frames (%d malformed skipped), finger present on %d ticks\n", res.Frames, res.Malformed, res.Detected)
	fmt.Printf("final: hr=%d spo2=%d bp=%s arrhythmia=%s (%d events) quality=%d\n",
		last.HeartRate, last.SpO2, last.Pressure, last.ArrhythmiaStatus, last.ArrhythmiaCount, last.Quality)
}
