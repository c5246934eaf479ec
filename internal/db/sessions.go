package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/vitals.report/internal/units"
	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
)

// Session is one continuous run of the pipeline against a frame source.
type Session struct {
	ID        string     `json:"session_id"`
	Source    string     `json:"source"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// StoredSnapshot is a persisted snapshot with its recording time.
type StoredSnapshot struct {
	ID         int64             `json:"snapshot_id"`
	SessionID  string            `json:"session_id"`
	RecordedAt time.Time         `json:"recorded_at"`
	Snapshot   pipeline.Snapshot `json:"snapshot"`
}

// StoredCalibration is a persisted blood-pressure reference reading.
type StoredCalibration struct {
	ID         int64     `json:"calibration_id"`
	SessionID  string    `json:"session_id"`
	Systolic   float64   `json:"systolic"`
	Diastolic  float64   `json:"diastolic"`
	Age        int       `json:"age"`
	RecordedAt time.Time `json:"recorded_at"`
}

// CreateSession inserts a new running session and returns it.
func (db *DB) CreateSession(source string, started time.Time) (Session, error) {
	s := Session{
		ID:        uuid.NewString(),
		Source:    source,
		StartedAt: fromUnixMillis(unixMillis(started)),
	}
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, source, started_at) VALUES (?, ?, ?)`,
		s.ID, s.Source, unixMillis(started),
	)
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// EndSession stamps the end time of a running session.
func (db *DB) EndSession(id string, ended time.Time) error {
	res, err := db.Exec(`UPDATE sessions SET ended_at = ? WHERE session_id = ?`, unixMillis(ended), id)
	if err != nil {
		return fmt.Errorf("failed to end session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// Sessions lists the most recent sessions, newest first.
func (db *DB) Sessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT session_id, source, started_at, ended_at FROM sessions
		 ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Session returns the session with the given id, or ErrNotFound.
func (db *DB) Session(id string) (Session, error) {
	row := db.QueryRow(
		`SELECT session_id, source, started_at, ended_at FROM sessions WHERE session_id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return s, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (Session, error) {
	var (
		s       Session
		started int64
		ended   sql.NullInt64
	)
	if err := sc.Scan(&s.ID, &s.Source, &started, &ended); err != nil {
		return Session{}, err
	}
	s.StartedAt = fromUnixMillis(started)
	if ended.Valid {
		t := fromUnixMillis(ended.Int64)
		s.EndedAt = &t
	}
	return s, nil
}

// RecordSnapshot persists one snapshot against a session.
func (db *DB) RecordSnapshot(sessionID string, snap pipeline.Snapshot, recorded time.Time) error {
	status, err := snap.ArrhythmiaStatus.MarshalText()
	if err != nil {
		return err
	}
	level, err := snap.Level.MarshalText()
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT INTO snapshots (
			session_id, timestamp_ms, heart_rate, confidence, spo2,
			systolic, diastolic, pressure_advisory, arrhythmia_status,
			arrhythmia_count, finger_detected, quality, level, failed_rules,
			recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, snap.TimestampMs, snap.HeartRate, snap.Confidence, snap.SpO2,
		snap.Systolic, snap.Diastolic, snap.PressureAdvisory, string(status),
		snap.ArrhythmiaCount, snap.FingerDetected, snap.Quality, string(level),
		strings.Join(snap.FailedRules, ","), unixMillis(recorded),
	)
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// Snapshots returns up to limit snapshots of a session in timestamp order.
// A limit of zero or less returns all of them.
func (db *DB) Snapshots(sessionID string, limit int) ([]StoredSnapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(
		`SELECT snapshot_id, session_id, timestamp_ms, heart_rate, confidence, spo2,
		        systolic, diastolic, pressure_advisory, arrhythmia_status,
		        arrhythmia_count, finger_detected, quality, level, failed_rules,
		        recorded_at
		 FROM snapshots WHERE session_id = ?
		 ORDER BY timestamp_ms ASC, snapshot_id ASC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StoredSnapshot{}
	for rows.Next() {
		var (
			st       StoredSnapshot
			status   string
			level    string
			failed   string
			recorded int64
		)
		s := &st.Snapshot
		if err := rows.Scan(
			&st.ID, &st.SessionID, &s.TimestampMs, &s.HeartRate, &s.Confidence, &s.SpO2,
			&s.Systolic, &s.Diastolic, &s.PressureAdvisory, &status,
			&s.ArrhythmiaCount, &s.FingerDetected, &s.Quality, &level, &failed,
			&recorded,
		); err != nil {
			return nil, err
		}
		if err := s.ArrhythmiaStatus.UnmarshalText([]byte(status)); err != nil {
			return nil, err
		}
		if err := s.Level.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
		if failed != "" {
			s.FailedRules = strings.Split(failed, ",")
		}
		s.Pressure = units.FormatPressure(s.Systolic, s.Diastolic)
		st.RecordedAt = fromUnixMillis(recorded)
		out = append(out, st)
	}
	return out, rows.Err()
}

// RecordCalibration persists a reference cuff reading against a session.
func (db *DB) RecordCalibration(sessionID string, systolic, diastolic float64, age int, recorded time.Time) error {
	_, err := db.Exec(
		`INSERT INTO calibrations (session_id, systolic, diastolic, age, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, systolic, diastolic, age, unixMillis(recorded))
	if err != nil {
		return fmt.Errorf("failed to record calibration: %w", err)
	}
	return nil
}

// Calibrations returns the calibrations recorded against a session, oldest
// first.
func (db *DB) Calibrations(sessionID string) ([]StoredCalibration, error) {
	rows, err := db.Query(
		`SELECT calibration_id, session_id, systolic, diastolic, age, recorded_at
		 FROM calibrations WHERE session_id = ? ORDER BY recorded_at ASC, calibration_id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StoredCalibration{}
	for rows.Next() {
		var (
			c        StoredCalibration
			recorded int64
		)
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Systolic, &c.Diastolic, &c.Age, &recorded); err != nil {
			return nil, err
		}
		c.RecordedAt = fromUnixMillis(recorded)
		out = append(out, c)
	}
	return out, rows.Err()
}

// LatestCalibration returns the newest calibration of any session, used to
// seed a new session's pressure estimator.
func (db *DB) LatestCalibration() (StoredCalibration, error) {
	var (
		c        StoredCalibration
		recorded int64
	)
	err := db.QueryRow(
		`SELECT calibration_id, session_id, systolic, diastolic, age, recorded_at
		 FROM calibrations ORDER BY recorded_at DESC, calibration_id DESC LIMIT 1`,
	).Scan(&c.ID, &c.SessionID, &c.Systolic, &c.Diastolic, &c.Age, &recorded)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredCalibration{}, ErrNotFound
	}
	if err != nil {
		return StoredCalibration{}, err
	}
	c.RecordedAt = fromUnixMillis(recorded)
	return c, nil
}
