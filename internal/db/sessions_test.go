package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vitals.report/internal/monitoring"
	"github.com/banshee-data/vitals.report/internal/vitals/l4cardiac"
	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "vitals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var t0 = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)

	s, err := db.CreateSession("synth:finger", t0)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Nil(t, s.EndedAt)

	got, err := db.Session(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	require.NoError(t, db.EndSession(s.ID, t0.Add(time.Minute)))
	got, err = db.Session(s.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	assert.True(t, got.EndedAt.Equal(t0.Add(time.Minute)))
}

func TestSession_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Session("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.EndSession("missing", t0), ErrNotFound)
}

func TestSessions_NewestFirst(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 3; i++ {
		_, err := db.CreateSession("replay", t0.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	all, err := db.Sessions(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].StartedAt.After(all[1].StartedAt))
	assert.True(t, all[1].StartedAt.After(all[2].StartedAt))

	two, err := db.Sessions(2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestSnapshots_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	s, err := db.CreateSession("serial:/dev/ttyACM0", t0)
	require.NoError(t, err)

	want := []pipeline.Snapshot{
		{
			HeartRate:        72,
			Confidence:       0.85,
			SpO2:             97,
			Pressure:         "118/76",
			Systolic:         118,
			Diastolic:        76,
			PressureAdvisory: true,
			ArrhythmiaStatus: l4cardiac.ArrhythmiaNone,
			FingerDetected:   true,
			Quality:          88,
			TimestampMs:      2000,
			Level:            monitoring.LevelHigh,
		},
		{
			Pressure:         "--/--",
			ArrhythmiaStatus: l4cardiac.ArrhythmiaLearning,
			TimestampMs:      1000,
			Level:            monitoring.LevelMedium,
			FailedRules:      []string{"red_dominance", "noise_floor"},
		},
	}
	for _, snap := range want {
		require.NoError(t, db.RecordSnapshot(s.ID, snap, t0))
	}

	got, err := db.Snapshots(s.ID, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Timestamp order, not insertion order.
	if diff := cmp.Diff(want[1], got[0].Snapshot); diff != "" {
		t.Errorf("first snapshot mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want[0], got[1].Snapshot); diff != "" {
		t.Errorf("second snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, s.ID, got[0].SessionID)
	assert.True(t, got[0].RecordedAt.Equal(t0))

	limited, err := db.Snapshots(s.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestCalibrations(t *testing.T) {
	db := newTestDB(t)

	_, err := db.LatestCalibration()
	assert.ErrorIs(t, err, ErrNotFound)

	s, err := db.CreateSession("synth:finger", t0)
	require.NoError(t, err)
	require.NoError(t, db.RecordCalibration(s.ID, 120, 80, 40, t0))
	require.NoError(t, db.RecordCalibration(s.ID, 125, 82, 40, t0.Add(time.Minute)))

	cals, err := db.Calibrations(s.ID)
	require.NoError(t, err)
	require.Len(t, cals, 2)
	assert.Equal(t, 120.0, cals[0].Systolic)

	latest, err := db.LatestCalibration()
	require.NoError(t, err)
	assert.Equal(t, 125.0, latest.Systolic)
	assert.Equal(t, 82.0, latest.Diastolic)
	assert.Equal(t, 40, latest.Age)
}
