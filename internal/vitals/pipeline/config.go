package pipeline

import (
	"fmt"

	"github.com/banshee-data/vitals.report/internal/config"
	"github.com/banshee-data/vitals.report/internal/monitoring"
	"github.com/banshee-data/vitals.report/internal/timeutil"
	"github.com/banshee-data/vitals.report/internal/vitals/l2signal"
	"github.com/banshee-data/vitals.report/internal/vitals/l3validity"
	"github.com/banshee-data/vitals.report/internal/vitals/l4cardiac"
	"github.com/banshee-data/vitals.report/internal/vitals/l5pressure"
)

// Config bundles the configuration of every stage.
type Config struct {
	Validity  l3validity.Config
	Cardiac   l4cardiac.Config
	Pressure  l5pressure.Config
	Scheduler monitoring.SchedulerConfig

	// Model is an optional per-sample transform run while the performance
	// level enables model filtering.
	Model l2signal.Model

	// Clock measures tick processing time. Nil uses the wall clock.
	Clock timeutil.Clock
}

// DefaultConfig returns a Config loaded from the canonical tuning defaults
// file (config/tuning.defaults.json).
// Panics if the file cannot be found.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Validity:  l3validity.ConfigFromTuning(cfg),
		Cardiac:   l4cardiac.ConfigFromTuning(cfg),
		Pressure:  l5pressure.ConfigFromTuning(cfg),
		Scheduler: monitoring.SchedulerConfigFromTuning(cfg),
	}
}

// Validate checks every stage configuration.
func (c Config) Validate() error {
	if err := c.Validity.Validate(); err != nil {
		return fmt.Errorf("validity: %w", err)
	}
	if err := c.Cardiac.Validate(); err != nil {
		return fmt.Errorf("cardiac: %w", err)
	}
	if err := c.Pressure.Validate(); err != nil {
		return fmt.Errorf("pressure: %w", err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	return nil
}
