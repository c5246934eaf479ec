// Command gen-ppg writes synthetic JSONL frame recordings for replay and
// testing.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
	"github.com/banshee-data/vitals.report/internal/vitals/synth"
)

func main() {
	output := flag.String("o", "sample.jsonl", "output path ('-' for stdout)")
	scene := flag.String("scene", "finger", "scene: finger, led, metal or dark")
	duration := flag.Duration("d", 30*time.Second, "recording length")
	rate := flag.Float64("rate", 30, "frame rate in Hz")
	bpm := flag.Float64("bpm", 72, "heart rate of the finger scene")
	noise := flag.Float64("noise", 0.5, "sensor noise amplitude")
	seed := flag.Uint64("seed", 1, "noise seed")
	premature := flag.Int("premature-every", 0, "shorten every Nth beat (0 disables)")
	flag.Parse()

	kind, err := synth.ParseKind(*scene)
	if err != nil {
		log.Fatal(err)
	}
	cfg := synth.DefaultConfig(kind)
	cfg.RateHz = *rate
	cfg.BPM = *bpm
	cfg.Noise = *noise
	cfg.Seed = *seed
	cfg.PrematureEvery = *premature

	n := int(duration.Seconds() * *rate)

	var w io.Writer = os.Stdout
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("failed to create %s: %v", *output, err)
		}
		defer f.Close()
		w = f
	}

	if err := generate(w, cfg, n); err != nil {
		log.Fatalf("failed to write recording: %v", err)
	}
	if *output != "-" {
		log.Printf("✓ Created: %s (%d frames, %s)", *output, n, kind)
	}
}

// generate writes a header comment and n frame lines to w.
func generate(w io.Writer, cfg synth.Config, n int) error {
	gen, err := synth.New(cfg)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# synthetic %s scene, %.1f Hz, %.0f BPM, seed %d\n", cfg.Kind, cfg.RateHz, cfg.BPM, cfg.Seed)
	for i := 0; i < n; i++ {
		line, err := l1frames.EncodeLine(gen.Next())
		if err != nil {
			return err
		}
		bw.Write(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
