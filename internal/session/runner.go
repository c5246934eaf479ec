// Package session runs one vitals pipeline against a frame source,
// serialises control commands between ticks, and persists and publishes
// its snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/vitals.report/internal/db"
	"github.com/banshee-data/vitals.report/internal/framesource"
	"github.com/banshee-data/vitals.report/internal/monitoring"
	"github.com/banshee-data/vitals.report/internal/publish"
	"github.com/banshee-data/vitals.report/internal/timeutil"
	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
	"github.com/banshee-data/vitals.report/internal/vitals/l2signal"
	"github.com/banshee-data/vitals.report/internal/vitals/l5pressure"
	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
)

// DefaultPersistInterval is the frame-time gap between persisted snapshots.
const DefaultPersistInterval = time.Second

// outboxSize bounds snapshots waiting for the store and sinks.
const outboxSize = 16

var (
	// ErrStopped is returned by commands issued after Run has returned.
	ErrStopped = errors.New("session: runner stopped")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("session: runner already running")
)

// Store persists sessions, snapshots and calibrations. *db.DB implements it.
type Store interface {
	CreateSession(source string, started time.Time) (db.Session, error)
	EndSession(id string, ended time.Time) error
	RecordSnapshot(sessionID string, snap pipeline.Snapshot, recorded time.Time) error
	RecordCalibration(sessionID string, systolic, diastolic float64, age int, recorded time.Time) error
	LatestCalibration() (db.StoredCalibration, error)
}

// Config configures a Runner.
type Config struct {
	Source          string        // Recorded with the session, e.g. "serial:/dev/ttyACM0"
	PersistInterval time.Duration // Zero means DefaultPersistInterval
	Store           Store         // Optional
	Sink            publish.Sink  // Optional
	Clock           timeutil.Clock
}

type command struct {
	apply func() error
	reply chan error
}

// Runner owns a pipeline. Only the Run goroutine touches the pipeline;
// other goroutines read the latest results or queue commands, which are
// applied between ticks.
type Runner struct {
	pipe  *pipeline.Pipeline
	cfg   Config
	store Store
	sink  publish.Sink
	clock timeutil.Clock

	cmds    chan command
	stopped chan struct{}
	running atomic.Bool

	mu        sync.RWMutex
	latest    pipeline.Snapshot
	perf      monitoring.Stats
	sessionID string
	ticks     uint64

	// Run goroutine only.
	outbox        chan pipeline.Snapshot
	lastPersistMs int64
	persisted     bool
	outboxDropped uint64
}

// NewRunner returns a runner for p. It does nothing until Run is called.
func NewRunner(p *pipeline.Pipeline, cfg Config) *Runner {
	if cfg.PersistInterval <= 0 {
		cfg.PersistInterval = DefaultPersistInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	sink := cfg.Sink
	if sink == nil {
		sink = publish.Discard{}
	}
	return &Runner{
		pipe:    p,
		cfg:     cfg,
		store:   cfg.Store,
		sink:    sink,
		clock:   cfg.Clock,
		cmds:    make(chan command),
		stopped: make(chan struct{}),
		latest:  p.Last(),
		perf:    p.PerformanceStats(),
	}
}

// Run processes frames from mb until ctx is done or mb is closed and
// drained. A closed mailbox ends the run with a nil error.
func (r *Runner) Run(ctx context.Context, mb *framesource.Mailbox) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(r.stopped)

	if err := r.begin(); err != nil {
		return err
	}

	r.outbox = make(chan pipeline.Snapshot, outboxSize)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.drainOutbox()
	}()
	defer func() {
		close(r.outbox)
		wg.Wait()
		r.end()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-r.cmds:
			cmd.reply <- cmd.apply()
		case f := <-mb.Frames():
			r.tick(f)
		case <-mb.Done():
			f, err := mb.Next(ctx)
			if errors.Is(err, framesource.ErrClosed) {
				diagf("frame source closed after %d ticks", r.Ticks())
				return nil
			}
			if err != nil {
				return err
			}
			r.tick(f)
		}
	}
}

func (r *Runner) begin() error {
	if r.store == nil {
		diagf("session started without a store")
		return nil
	}
	s, err := r.store.CreateSession(r.cfg.Source, r.clock.Now())
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	r.mu.Lock()
	r.sessionID = s.ID
	r.mu.Unlock()
	diagf("session %s started, source %q", s.ID, r.cfg.Source)

	cal, err := r.store.LatestCalibration()
	switch {
	case errors.Is(err, db.ErrNotFound):
	case err != nil:
		opsf("failed to load calibration: %v", err)
	default:
		if err := r.pipe.CalibrateBloodPressure(cal.Systolic, cal.Diastolic, cal.Age); err != nil {
			opsf("stored calibration rejected: %v", err)
		} else {
			diagf("restored calibration %v/%v from session %s", cal.Systolic, cal.Diastolic, cal.SessionID)
		}
	}
	return nil
}

func (r *Runner) end() {
	if r.outboxDropped > 0 {
		opsf("%d snapshots dropped behind a slow store or sink", r.outboxDropped)
	}
	id := r.SessionID()
	if r.store == nil || id == "" {
		return
	}
	if err := r.store.EndSession(id, r.clock.Now()); err != nil {
		opsf("failed to end session %s: %v", id, err)
		return
	}
	diagf("session %s ended", id)
}

func (r *Runner) tick(f l1frames.Frame) {
	snap := r.pipe.Process(f)
	perf := r.pipe.PerformanceStats()

	r.mu.Lock()
	r.latest = snap
	r.perf = perf
	r.ticks++
	r.mu.Unlock()

	if !r.persisted || timeutil.ElapsedMillis(f.TimestampMs, r.lastPersistMs, r.cfg.PersistInterval) {
		r.persisted = true
		r.lastPersistMs = f.TimestampMs
		select {
		case r.outbox <- snap:
		default:
			r.outboxDropped++
		}
	}
}

func (r *Runner) drainOutbox() {
	id := r.SessionID()
	for snap := range r.outbox {
		if r.store != nil && id != "" {
			if err := r.store.RecordSnapshot(id, snap, r.clock.Now()); err != nil {
				opsf("failed to persist snapshot at %dms: %v", snap.TimestampMs, err)
			}
		}
		if err := r.sink.Publish(context.Background(), snap); err != nil {
			opsf("failed to publish snapshot at %dms: %v", snap.TimestampMs, err)
		}
		tracef("snapshot at %dms: hr %d spo2 %d bp %s", snap.TimestampMs, snap.HeartRate, snap.SpO2, snap.Pressure)
	}
}

// do queues fn for the Run goroutine and waits for its result.
func (r *Runner) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	select {
	case r.cmds <- command{apply: fn, reply: reply}:
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	// Run always answers a command it has received.
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CalibrateBloodPressure applies and records a reference cuff reading.
// Invalid readings return l5pressure.ErrInvalidCalibration.
func (r *Runner) CalibrateBloodPressure(ctx context.Context, systolic, diastolic float64, age int) error {
	return r.do(ctx, func() error {
		if err := r.pipe.CalibrateBloodPressure(systolic, diastolic, age); err != nil {
			return err
		}
		if id := r.SessionID(); r.store != nil && id != "" {
			if err := r.store.RecordCalibration(id, systolic, diastolic, age, r.clock.Now()); err != nil {
				opsf("failed to record calibration: %v", err)
			}
		}
		diagf("blood pressure calibrated to %v/%v", systolic, diastolic)
		return nil
	})
}

// Calibration returns the active blood-pressure calibration.
func (r *Runner) Calibration(ctx context.Context) (cal l5pressure.Calibration, ok bool, err error) {
	err = r.do(ctx, func() error {
		cal, ok = r.pipe.BloodPressureCalibration()
		return nil
	})
	return cal, ok, err
}

// Reset returns the pipeline to its initial state. The session continues.
func (r *Runner) Reset(ctx context.Context) error {
	return r.do(ctx, func() error {
		r.pipe.Reset()
		r.mu.Lock()
		r.latest = r.pipe.Last()
		r.perf = r.pipe.PerformanceStats()
		r.mu.Unlock()
		diagf("pipeline reset")
		return nil
	})
}

// Waveform returns up to n of the newest filtered samples, oldest first.
func (r *Runner) Waveform(ctx context.Context, n int) ([]l2signal.Sample, error) {
	var samples []l2signal.Sample
	err := r.do(ctx, func() error {
		samples = r.pipe.Waveform(n)
		return nil
	})
	return samples, err
}

// Latest returns the most recent snapshot.
func (r *Runner) Latest() pipeline.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Performance returns the scheduler summary as of the last tick.
func (r *Runner) Performance() monitoring.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.perf
}

// SessionID is empty until Run has created the session in the store.
func (r *Runner) SessionID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessionID
}

// Ticks counts frames processed since Run started.
func (r *Runner) Ticks() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ticks
}
