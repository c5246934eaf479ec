// Package testutil provides shared test fixtures: a fixed mock clock,
// synthetic frame streams and a pipeline wired to both.
package testutil

import (
	"net/http"
	"testing"
	"time"

	"github.com/banshee-data/vitals.report/internal/timeutil"
	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
	"github.com/banshee-data/vitals.report/internal/vitals/synth"
)

// Epoch is the start time of every TestClock.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// TestClock returns a mock clock stopped at Epoch.
func TestClock() *timeutil.MockClock {
	return timeutil.NewMockClock(Epoch)
}

// Frames returns n synthetic frames of the given scene at the default rate
// and heart rate. mutate, if given, adjusts the generator config first.
func Frames(t testing.TB, kind synth.Kind, n int, mutate ...func(*synth.Config)) []l1frames.Frame {
	t.Helper()
	cfg := synth.DefaultConfig(kind)
	for _, m := range mutate {
		m(&cfg)
	}
	gen, err := synth.New(cfg)
	if err != nil {
		t.Fatalf("synth.New: %v", err)
	}
	return gen.Frames(n)
}

// Generator returns a synthetic generator for kind with default settings.
func Generator(t testing.TB, kind synth.Kind) *synth.Generator {
	t.Helper()
	gen, err := synth.New(synth.DefaultConfig(kind))
	if err != nil {
		t.Fatalf("synth.New: %v", err)
	}
	return gen
}

// Pipeline returns a default pipeline timed by clock.
func Pipeline(t testing.TB, clock timeutil.Clock) *pipeline.Pipeline {
	t.Helper()
	cfg := pipeline.DefaultConfig()
	cfg.Clock = clock
	p, err := pipeline.New(cfg)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return p
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d (%s), want %d (%s)", got, http.StatusText(got), want, http.StatusText(want))
	}
}
