package monitoring

import (
	"fmt"
	"time"

	"github.com/banshee-data/vitals.report/internal/config"
	"github.com/banshee-data/vitals.report/internal/timeutil"
	"github.com/banshee-data/vitals.report/internal/vitals/ring"
)

// schedulerWindow is the number of processing times and arrivals retained.
const schedulerWindow = 60

// SchedulerConfig parameterises the performance scheduler.
type SchedulerConfig struct {
	FrameBudget       time.Duration // Average processing time that forces a downgrade (default: 12ms)
	TargetFPS         float64       // Expected tick rate for drop accounting (default: 60)
	MinHistory        int           // Processing samples required before evaluating (default: 30)
	DowngradeDropRate float64       // Drop fraction that forces a downgrade (default: 0.1)
	UpgradeDropRate   float64       // Drop fraction below which an upgrade is allowed (default: 0.02)
}

// DefaultSchedulerConfig returns a SchedulerConfig loaded from the canonical
// tuning defaults file (config/tuning.defaults.json).
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfigFromTuning(config.MustLoadDefaultConfig())
}

// SchedulerConfigFromTuning builds a SchedulerConfig from a loaded TuningConfig.
func SchedulerConfigFromTuning(cfg *config.TuningConfig) SchedulerConfig {
	return SchedulerConfig{
		FrameBudget:       cfg.GetFrameBudget(),
		TargetFPS:         cfg.GetTargetFPS(),
		MinHistory:        cfg.GetPerformanceMinHistory(),
		DowngradeDropRate: cfg.GetPerformanceDowngradeDropRate(),
		UpgradeDropRate:   cfg.GetPerformanceUpgradeDropRate(),
	}
}

// Validate checks the configuration for construction-time invariants.
func (c SchedulerConfig) Validate() error {
	if c.FrameBudget <= 0 {
		return fmt.Errorf("FrameBudget must be positive, got %v", c.FrameBudget)
	}
	if c.TargetFPS <= 0 {
		return fmt.Errorf("TargetFPS must be positive, got %f", c.TargetFPS)
	}
	if c.MinHistory <= 0 || c.MinHistory > schedulerWindow {
		return fmt.Errorf("MinHistory must be in [1, %d], got %d", schedulerWindow, c.MinHistory)
	}
	if c.UpgradeDropRate > c.DowngradeDropRate {
		return fmt.Errorf("UpgradeDropRate %f exceeds DowngradeDropRate %f", c.UpgradeDropRate, c.DowngradeDropRate)
	}
	return nil
}

// Stats is a read-only view of scheduler performance.
type Stats struct {
	FPS             float64 `json:"fps"`
	AvgProcessingMs float64 `json:"avg_processing_ms"`
	DropRatePct     float64 `json:"drop_rate_pct"`
	Level           Level   `json:"level"`
}

// Scheduler tracks tick cost and arrival gaps and moves between performance
// levels to keep processing inside the frame budget. At most one level
// change happens per evaluation, after which the history restarts.
type Scheduler struct {
	cfg   SchedulerConfig
	clock timeutil.Clock

	level    Level
	times    *ring.Buffer[time.Duration]
	arrivals *ring.Buffer[time.Time]
	ticks    int
	dropped  int
	counter  int
}

// NewScheduler validates cfg and returns a scheduler at LevelHigh. A nil
// clock uses the wall clock.
func NewScheduler(cfg SchedulerConfig, clock timeutil.Clock) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Scheduler{
		cfg:      cfg,
		clock:    clock,
		times:    ring.New[time.Duration](schedulerWindow),
		arrivals: ring.New[time.Time](schedulerWindow),
	}, nil
}

// maxGap is the arrival gap beyond which a tick counts as dropped.
func (s *Scheduler) maxGap() time.Duration {
	return time.Duration(1.5 * float64(time.Second) / s.cfg.TargetFPS)
}

// BeginTick records a tick arrival and returns its start time.
func (s *Scheduler) BeginTick() time.Time {
	now := s.clock.Now()
	if prev, ok := s.arrivals.Last(); ok && now.Sub(prev) > s.maxGap() {
		s.dropped++
	}
	s.arrivals.Push(now)
	s.ticks++
	return now
}

// ShouldProcessFrame reports whether the current tick runs the full
// pipeline under the active level's decimation.
func (s *Scheduler) ShouldProcessFrame() bool {
	process := s.counter%s.level.Config().Decimation == 0
	s.counter++
	return process
}

// EndTick records the processing time of a fully processed tick started at
// start and evaluates the level. It reports whether the level changed.
func (s *Scheduler) EndTick(start time.Time) bool {
	s.times.Push(s.clock.Since(start))
	return s.evaluate()
}

func (s *Scheduler) evaluate() bool {
	if s.times.Len() < s.cfg.MinHistory {
		return false
	}
	avg := s.avgProcessing()
	drop := s.dropRate()

	next := s.level
	switch {
	case avg > s.cfg.FrameBudget || drop > s.cfg.DowngradeDropRate:
		if s.level < LevelLow {
			next = s.level + 1
		}
	case avg < s.cfg.FrameBudget/2 && drop < s.cfg.UpgradeDropRate:
		if s.level > LevelHigh {
			next = s.level - 1
		}
	}
	if next == s.level {
		return false
	}

	Logf("performance level %s -> %s (avg %.2fms, drops %.1f%%)", s.level, next,
		float64(avg)/float64(time.Millisecond), 100*drop)
	s.level = next
	s.times.Clear()
	s.ticks = 0
	s.dropped = 0
	s.counter = 0
	return true
}

func (s *Scheduler) avgProcessing() time.Duration {
	if s.times.Len() == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s.times.Values() {
		total += d
	}
	return total / time.Duration(s.times.Len())
}

func (s *Scheduler) dropRate() float64 {
	if s.ticks == 0 {
		return 0
	}
	return float64(s.dropped) / float64(s.ticks)
}

// Level returns the active level.
func (s *Scheduler) Level() Level { return s.level }

// LevelConfig returns the active level's processing configuration.
func (s *Scheduler) LevelConfig() LevelConfig { return s.level.Config() }

// Stats returns the current performance summary.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		AvgProcessingMs: float64(s.avgProcessing()) / float64(time.Millisecond),
		DropRatePct:     100 * s.dropRate(),
		Level:           s.level,
	}
	if n := s.arrivals.Len(); n > 1 {
		span := s.arrivals.At(n - 1).Sub(s.arrivals.At(0))
		if span > 0 {
			st.FPS = float64(n-1) / span.Seconds()
		}
	}
	return st
}

// Reset returns the scheduler to LevelHigh with no history.
func (s *Scheduler) Reset() {
	s.level = LevelHigh
	s.times.Clear()
	s.arrivals.Clear()
	s.ticks = 0
	s.dropped = 0
	s.counter = 0
}
