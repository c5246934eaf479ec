package framesource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/vitals.report/internal/serialmux"
	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
	"github.com/banshee-data/vitals.report/internal/vitals/synth"
	"golang.org/x/time/rate"
)

// Source produces frames into a mailbox until its input ends or ctx is done.
// Run returns nil when the input is exhausted.
type Source interface {
	Run(ctx context.Context, out *Mailbox) error
}

// SerialSource decodes frame lines from a serial multiplexer subscription.
type SerialSource struct {
	Mux serialmux.SerialMuxInterface
}

// Run subscribes to the multiplexer and forwards every decodable frame.
// Status lines are logged; malformed frames are logged and skipped.
func (s SerialSource) Run(ctx context.Context, out *Mailbox) error {
	id, lines := s.Mux.Subscribe()
	defer s.Mux.Unsubscribe(id)
	diagf("serial source started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				diagf("serial source closed")
				return nil
			}
			switch serialmux.ClassifyLine(line) {
			case serialmux.LineTypeFrame:
				f, err := l1frames.DecodeLine([]byte(line))
				if err != nil {
					opsf("dropping serial line: %v", err)
					continue
				}
				if out.Put(f) {
					tracef("frame at %dms displaced an unread frame", f.TimestampMs)
				}
			case serialmux.LineTypeStatus:
				diagf("capture board: %s", line)
			default:
				opsf("unrecognised serial line: %.80q", line)
			}
		}
	}
}

// Decoder reads frames from a JSONL stream. Blank lines and lines starting
// with '#' are skipped.
type Decoder struct {
	scan *bufio.Scanner
	line int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 64*1024), 1<<20)
	return &Decoder{scan: scan}
}

// Next returns the next frame, io.EOF at the end of input, or an error
// wrapping l1frames.ErrMalformedFrame naming the offending line.
func (d *Decoder) Next() (l1frames.Frame, error) {
	for d.scan.Scan() {
		d.line++
		text := strings.TrimSpace(d.scan.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		f, err := l1frames.DecodeLine([]byte(text))
		if err != nil {
			return l1frames.Frame{}, fmt.Errorf("line %d: %w", d.line, err)
		}
		return f, nil
	}
	if err := d.scan.Err(); err != nil {
		return l1frames.Frame{}, err
	}
	return l1frames.Frame{}, io.EOF
}

// ReadAll decodes every frame in r, stopping at the first malformed line.
func ReadAll(r io.Reader) ([]l1frames.Frame, error) {
	d := NewDecoder(r)
	var out []l1frames.Frame
	for {
		f, err := d.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
}

// limiter returns a limiter allowing rateHz events per second, or an
// unlimited one for non-positive rates.
func limiter(rateHz float64) *rate.Limiter {
	if rateHz <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rateHz), 1)
}

// ReplaySource replays a JSONL recording at RateHz frames per second.
// A non-positive RateHz replays as fast as the consumer allows. Malformed
// lines are logged and skipped.
type ReplaySource struct {
	Reader io.Reader
	RateHz float64
}

func (s ReplaySource) Run(ctx context.Context, out *Mailbox) error {
	lim := limiter(s.RateHz)
	d := NewDecoder(s.Reader)
	diagf("replay started at %.1f Hz", s.RateHz)

	for {
		f, err := d.Next()
		if errors.Is(err, io.EOF) {
			diagf("replay finished after %d lines", d.line)
			return nil
		}
		if errors.Is(err, l1frames.ErrMalformedFrame) {
			opsf("replay: %v", err)
			continue
		}
		if err != nil {
			return err
		}
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		out.Put(f)
	}
}

// SynthSource emits generated frames at RateHz until ctx is done, or until
// Count frames when Count is positive.
type SynthSource struct {
	Generator *synth.Generator
	RateHz    float64
	Count     int
}

func (s SynthSource) Run(ctx context.Context, out *Mailbox) error {
	lim := limiter(s.RateHz)
	diagf("synthetic source started at %.1f Hz", s.RateHz)
	for i := 0; s.Count <= 0 || i < s.Count; i++ {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		out.Put(s.Generator.Next())
	}
	return nil
}
