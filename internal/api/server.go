// Package api serves the vitals HTTP API, Prometheus metrics and the gRPC
// health service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/vitals.report/internal/db"
	"github.com/banshee-data/vitals.report/internal/monitoring"
	"github.com/banshee-data/vitals.report/internal/vitals/l2signal"
	"github.com/banshee-data/vitals.report/internal/vitals/l5pressure"
	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// commandTimeout bounds how long a request waits for the runner to pick up
// a command between ticks.
const commandTimeout = 2 * time.Second

// Runner is the live session the API controls. *session.Runner implements it.
type Runner interface {
	Latest() pipeline.Snapshot
	Performance() monitoring.Stats
	SessionID() string
	CalibrateBloodPressure(ctx context.Context, systolic, diastolic float64, age int) error
	Calibration(ctx context.Context) (l5pressure.Calibration, bool, error)
	Reset(ctx context.Context) error
	Waveform(ctx context.Context, n int) ([]l2signal.Sample, error)
}

// Store reads recorded sessions. *db.DB implements it.
type Store interface {
	Sessions(limit int) ([]db.Session, error)
	Session(id string) (db.Session, error)
	Snapshots(sessionID string, limit int) ([]db.StoredSnapshot, error)
	Calibrations(sessionID string) ([]db.StoredCalibration, error)
}

type Server struct {
	runner Runner
	store  Store
}

// NewServer returns a server for runner. store may be nil, in which case the
// session endpoints answer 503.
func NewServer(runner Runner, store Store) *Server {
	return &Server{runner: runner, store: store}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/snapshot", s.showSnapshot)
	mux.HandleFunc("GET /api/performance", s.showPerformance)
	mux.HandleFunc("GET /api/waveform", s.showWaveform)
	mux.HandleFunc("GET /api/calibrate/bp", s.showCalibration)
	mux.HandleFunc("POST /api/calibrate/bp", s.calibrateBloodPressure)
	mux.HandleFunc("POST /api/reset", s.reset)
	mux.HandleFunc("GET /api/sessions", s.listSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.showSession)
	mux.HandleFunc("GET /api/sessions/{id}/snapshots", s.listSnapshots)
	mux.HandleFunc("GET /api/sessions/{id}/chart", s.sessionChart)
	mux.HandleFunc("GET /api/sessions/{id}/plot.png", s.sessionPlot)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// commandError maps a runner command failure to a response.
func (s *Server) commandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		s.writeJSONError(w, http.StatusServiceUnavailable, "pipeline busy or not running")
	case errors.Is(err, context.Canceled):
		// Client went away.
	default:
		s.writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	}
}

func queryInt(r *http.Request, name string, def, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name + " parameter")
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}

func (s *Server) showSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.runner.Latest())
}

type performanceResponse struct {
	monitoring.Stats
	Config    monitoring.LevelConfig `json:"config"`
	SessionID string                 `json:"session_id,omitempty"`
}

func (s *Server) showPerformance(w http.ResponseWriter, r *http.Request) {
	stats := s.runner.Performance()
	writeJSON(w, http.StatusOK, performanceResponse{
		Stats:     stats,
		Config:    stats.Level.Config(),
		SessionID: s.runner.SessionID(),
	})
}

type waveformPoint struct {
	TimestampMs int64   `json:"timestamp_ms"`
	Value       float64 `json:"value"`
}

func (s *Server) showWaveform(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n", l2signal.DefaultBufferCapacity, l2signal.DefaultBufferCapacity)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()
	samples, err := s.runner.Waveform(ctx, n)
	if err != nil {
		s.commandError(w, err)
		return
	}
	points := make([]waveformPoint, len(samples))
	for i, smp := range samples {
		points[i] = waveformPoint{TimestampMs: smp.TimestampMs, Value: smp.Value}
	}
	writeJSON(w, http.StatusOK, points)
}

type calibrationRequest struct {
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
	Age       int     `json:"age"`
}

type calibrationResponse struct {
	Calibrated  bool    `json:"calibrated"`
	Systolic    float64 `json:"systolic,omitempty"`
	Diastolic   float64 `json:"diastolic,omitempty"`
	Age         int     `json:"age,omitempty"`
	BaselinePTT float64 `json:"baseline_ptt_ms,omitempty"`
}

func (s *Server) showCalibration(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()
	cal, ok, err := s.runner.Calibration(ctx)
	if err != nil {
		s.commandError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, calibrationResponse{})
		return
	}
	writeJSON(w, http.StatusOK, calibrationResponse{
		Calibrated:  true,
		Systolic:    cal.Systolic,
		Diastolic:   cal.Diastolic,
		Age:         cal.Age,
		BaselinePTT: cal.BaselinePTT,
	})
}

func (s *Server) calibrateBloodPressure(w http.ResponseWriter, r *http.Request) {
	var req calibrationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()
	err := s.runner.CalibrateBloodPressure(ctx, req.Systolic, req.Diastolic, req.Age)
	if errors.Is(err, l5pressure.ErrInvalidCalibration) {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.commandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()
	if err := s.runner.Reset(ctx); err != nil {
		s.commandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireStore answers 503 when no store is configured.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "session store disabled")
		return false
	}
	return true
}

// storeError maps a store failure to a response.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrNotFound) {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	log.Printf("store query failed: %v", err)
	s.writeJSONError(w, http.StatusInternalServerError, "store query failed")
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	limit, err := queryInt(r, "limit", 100, 1000)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	sessions, err := s.store.Sessions(limit)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

type sessionResponse struct {
	db.Session
	Calibrations []db.StoredCalibration `json:"calibrations"`
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	sess, err := s.store.Session(r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	cals, err := s.store.Calibrations(sess.ID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess, Calibrations: cals})
}

// sessionSnapshots loads a session's snapshots, answering 404 for an unknown
// session.
func (s *Server) sessionSnapshots(w http.ResponseWriter, r *http.Request, limit int) (db.Session, []db.StoredSnapshot, bool) {
	if !s.requireStore(w) {
		return db.Session{}, nil, false
	}
	sess, err := s.store.Session(r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return db.Session{}, nil, false
	}
	snaps, err := s.store.Snapshots(sess.ID, limit)
	if err != nil {
		s.storeError(w, err)
		return db.Session{}, nil, false
	}
	return sess, snaps, true
}

func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0, 0)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	_, snaps, ok := s.sessionSnapshots(w, r, limit)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}
