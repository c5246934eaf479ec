package framesource

import (
	"io"
	"log"
	"sync"
)

// LogWriters holds the three logging streams for the package.
type LogWriters struct {
	Ops   io.Writer // Malformed input, device loss
	Diag  io.Writer // Source start and stop
	Trace io.Writer // Per-frame handoff
}

var (
	logMu       sync.RWMutex
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures the logging streams. A nil writer disables that
// stream.
func SetLogWriters(w LogWriters) {
	logMu.Lock()
	defer logMu.Unlock()
	opsLogger = newLogger(w.Ops)
	diagLogger = newLogger(w.Diag)
	traceLogger = newLogger(w.Trace)
}

func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, "[framesource] ", log.LstdFlags|log.Lmicroseconds)
}

func opsf(format string, args ...interface{}) {
	logMu.RLock()
	defer logMu.RUnlock()
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

func diagf(format string, args ...interface{}) {
	logMu.RLock()
	defer logMu.RUnlock()
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}

func tracef(format string, args ...interface{}) {
	logMu.RLock()
	defer logMu.RUnlock()
	if traceLogger != nil {
		traceLogger.Printf(format, args...)
	}
}
