package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vitals.report/internal/db"
	"github.com/banshee-data/vitals.report/internal/framesource"
	"github.com/banshee-data/vitals.report/internal/testutil"
	"github.com/banshee-data/vitals.report/internal/vitals/l5pressure"
	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
	"github.com/banshee-data/vitals.report/internal/vitals/synth"
)

type fakeStore struct {
	mu           sync.Mutex
	sessions     []db.Session
	ended        map[string]time.Time
	snapshots    []pipeline.Snapshot
	calibrations []db.StoredCalibration
	seed         *db.StoredCalibration
}

func (s *fakeStore) CreateSession(source string, started time.Time) (db.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := db.Session{ID: "session-1", Source: source, StartedAt: started}
	s.sessions = append(s.sessions, sess)
	return sess, nil
}

func (s *fakeStore) EndSession(id string, ended time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended == nil {
		s.ended = map[string]time.Time{}
	}
	s.ended[id] = ended
	return nil
}

func (s *fakeStore) RecordSnapshot(_ string, snap pipeline.Snapshot, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *fakeStore) RecordCalibration(id string, sys, dia float64, age int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calibrations = append(s.calibrations, db.StoredCalibration{
		SessionID: id, Systolic: sys, Diastolic: dia, Age: age, RecordedAt: at,
	})
	return nil
}

func (s *fakeStore) LatestCalibration() (db.StoredCalibration, error) {
	if s.seed == nil {
		return db.StoredCalibration{}, db.ErrNotFound
	}
	return *s.seed, nil
}

func (s *fakeStore) persisted() []pipeline.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pipeline.Snapshot(nil), s.snapshots...)
}

type countingSink struct {
	mu  sync.Mutex
	got []int64
	err error
}

func (c *countingSink) Publish(_ context.Context, snap pipeline.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, snap.TimestampMs)
	return c.err
}

func (c *countingSink) Close() error { return nil }

type harness struct {
	runner *Runner
	mb     *framesource.Mailbox
	store  *fakeStore
	sink   *countingSink
	done   chan error
	cancel context.CancelFunc
}

func start(t *testing.T, store *fakeStore) *harness {
	t.Helper()
	clock := testutil.TestClock()
	p := testutil.Pipeline(t, clock)

	h := &harness{
		mb:    framesource.NewMailbox(),
		store: store,
		sink:  &countingSink{},
		done:  make(chan error, 1),
	}
	rc := Config{Source: "synth:finger", Sink: h.sink, Clock: clock}
	if store != nil {
		rc.Store = store
	}
	h.runner = NewRunner(p, rc)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.runner.Run(ctx, h.mb) }()
	t.Cleanup(cancel)
	return h
}

// feed hands frames over one at a time, waiting for each tick so none are
// displaced.
func (h *harness) feed(t *testing.T, n int) {
	t.Helper()
	gen := testutil.Generator(t, synth.KindFinger)
	for i := 0; i < n; i++ {
		want := h.runner.Ticks() + 1
		h.mb.Put(gen.Next())
		require.Eventually(t, func() bool { return h.runner.Ticks() >= want },
			time.Second, 100*time.Microsecond)
	}
}

func (h *harness) stop(t *testing.T) error {
	t.Helper()
	h.mb.Close()
	select {
	case err := <-h.done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
		return nil
	}
}

func TestRunner_ProcessesAndPersists(t *testing.T) {
	store := &fakeStore{}
	h := start(t, store)

	// 30 Hz frames from 0 ms to 2967 ms.
	h.feed(t, 90)
	require.NoError(t, h.stop(t))

	assert.Equal(t, uint64(90), h.runner.Ticks())
	assert.Equal(t, int64(2967), h.runner.Latest().TimestampMs)
	assert.Equal(t, "session-1", h.runner.SessionID())

	var ts []int64
	for _, s := range store.persisted() {
		ts = append(ts, s.TimestampMs)
	}
	assert.Equal(t, []int64{0, 1000, 2000}, ts)
	assert.Equal(t, ts, h.sink.got)

	require.Len(t, store.sessions, 1)
	assert.Equal(t, "synth:finger", store.sessions[0].Source)
	assert.Contains(t, store.ended, "session-1")
}

func TestRunner_CommandsWhileIdle(t *testing.T) {
	store := &fakeStore{}
	h := start(t, store)
	ctx := context.Background()

	err := h.runner.CalibrateBloodPressure(ctx, 80, 90, 30)
	assert.ErrorIs(t, err, l5pressure.ErrInvalidCalibration)

	require.NoError(t, h.runner.CalibrateBloodPressure(ctx, 125, 82, 35))
	cal, ok, err := h.runner.Calibration(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 125.0, cal.Systolic)

	require.Len(t, store.calibrations, 1)
	assert.Equal(t, "session-1", store.calibrations[0].SessionID)
	assert.Equal(t, 82.0, store.calibrations[0].Diastolic)

	require.NoError(t, h.stop(t))
}

func TestRunner_ResetAndWaveform(t *testing.T) {
	h := start(t, nil)
	ctx := context.Background()

	h.feed(t, 60)
	assert.NotEqual(t, pipeline.EmptySnapshot(), h.runner.Latest())

	wave, err := h.runner.Waveform(ctx, 10)
	require.NoError(t, err)
	require.Len(t, wave, 10)
	assert.Equal(t, h.runner.Latest().TimestampMs, wave[9].TimestampMs)

	require.NoError(t, h.runner.Reset(ctx))
	assert.Equal(t, pipeline.EmptySnapshot(), h.runner.Latest())
	wave, err = h.runner.Waveform(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, wave)

	require.NoError(t, h.stop(t))
	assert.Empty(t, h.runner.SessionID())
}

func TestRunner_RestoresStoredCalibration(t *testing.T) {
	store := &fakeStore{seed: &db.StoredCalibration{SessionID: "old", Systolic: 130, Diastolic: 85, Age: 50}}
	h := start(t, store)

	cal, ok, err := h.runner.Calibration(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 130.0, cal.Systolic)
	assert.Equal(t, 50, cal.Age)

	require.NoError(t, h.stop(t))
}

func TestRunner_SinkFailureDoesNotStopProcessing(t *testing.T) {
	h := start(t, nil)
	h.sink.err = errors.New("broker down")

	h.feed(t, 40)
	require.NoError(t, h.stop(t))
	assert.Equal(t, uint64(40), h.runner.Ticks())
}

func TestRunner_CommandLifecycle(t *testing.T) {
	r := NewRunner(testutil.Pipeline(t, nil), Config{})

	// Not yet running: the command waits for ctx.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Reset(ctx), context.DeadlineExceeded)

	mb := framesource.NewMailbox()
	mb.Close()
	require.NoError(t, r.Run(context.Background(), mb))

	assert.ErrorIs(t, r.Reset(context.Background()), ErrStopped)
	assert.ErrorIs(t, r.Run(context.Background(), mb), ErrAlreadyRunning)
}

func TestRunner_CancelledContext(t *testing.T) {
	h := start(t, &fakeStore{})
	h.feed(t, 5)
	h.cancel()

	select {
	case err := <-h.done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Contains(t, h.store.ended, "session-1")
}
