package monitoring

import (
	"testing"
	"time"

	"github.com/banshee-data/vitals.report/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		FrameBudget:       12 * time.Millisecond,
		TargetFPS:         60,
		MinHistory:        30,
		DowngradeDropRate: 0.1,
		UpgradeDropRate:   0.02,
	}
}

func newTestScheduler(t *testing.T) (*Scheduler, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	s, err := NewScheduler(testSchedulerConfig(), clock)
	require.NoError(t, err)
	return s, clock
}

// runTicks simulates n processed ticks of the given cost arriving every
// interval. It returns the number of level changes.
func runTicks(s *Scheduler, clock *timeutil.MockClock, n int, cost, interval time.Duration) int {
	changes := 0
	for i := 0; i < n; i++ {
		start := s.BeginTick()
		clock.Advance(cost)
		if s.EndTick(start) {
			changes++
		}
		clock.Advance(interval - cost)
	}
	return changes
}

func TestLevel_Config(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, LevelHigh.Config().Decimation)
	assert.Equal(t, 300, LevelHigh.Config().BufferSize)
	assert.True(t, LevelHigh.Config().Features.ModelFiltering)

	assert.Equal(t, 2, LevelMedium.Config().Decimation)
	assert.False(t, LevelMedium.Config().Features.ModelFiltering)
	assert.True(t, LevelMedium.Config().Features.Spectral)

	low := LevelLow.Config()
	assert.Equal(t, 3, low.Decimation)
	assert.Equal(t, 150, low.BufferSize)
	assert.Equal(t, Features{}, low.Features)

	assert.Equal(t, "medium", LevelMedium.String())
	assert.Equal(t, "Level(7)", Level(7).String())
}

func TestSchedulerConfig_Validate(t *testing.T) {
	t.Parallel()
	require.NoError(t, testSchedulerConfig().Validate())
	require.NoError(t, DefaultSchedulerConfig().Validate())

	bad := testSchedulerConfig()
	bad.MinHistory = 61
	assert.Error(t, bad.Validate())

	bad = testSchedulerConfig()
	bad.UpgradeDropRate = 0.5
	assert.Error(t, bad.Validate())

	_, err := NewScheduler(SchedulerConfig{}, nil)
	assert.Error(t, err)
}

func TestScheduler_DowngradesOncePerEvaluation(t *testing.T) {
	t.Parallel()
	s, clock := newTestScheduler(t)
	interval := time.Second / 60

	assert.Equal(t, 0, runTicks(s, clock, 29, 15*time.Millisecond, interval))
	assert.Equal(t, LevelHigh, s.Level())

	assert.Equal(t, 1, runTicks(s, clock, 1, 15*time.Millisecond, interval))
	assert.Equal(t, LevelMedium, s.Level())

	// History restarted: another 29 slow ticks are not enough to evaluate.
	assert.Equal(t, 0, runTicks(s, clock, 29, 15*time.Millisecond, interval))
	assert.Equal(t, LevelMedium, s.Level())

	assert.Equal(t, 1, runTicks(s, clock, 1, 15*time.Millisecond, interval))
	assert.Equal(t, LevelLow, s.Level())

	// Already at the lowest level.
	assert.Equal(t, 0, runTicks(s, clock, 60, 15*time.Millisecond, interval))
	assert.Equal(t, LevelLow, s.Level())
}

func TestScheduler_DowngradesOnDrops(t *testing.T) {
	t.Parallel()
	s, clock := newTestScheduler(t)
	// Fast processing but a 30ms arrival gap (> 25ms) on every tick.
	assert.Equal(t, 1, runTicks(s, clock, 30, 2*time.Millisecond, 30*time.Millisecond))
	assert.Equal(t, LevelMedium, s.Level())
}

func TestScheduler_Upgrades(t *testing.T) {
	t.Parallel()
	s, clock := newTestScheduler(t)
	interval := time.Second / 60
	runTicks(s, clock, 30, 15*time.Millisecond, interval)
	require.Equal(t, LevelMedium, s.Level())

	// Between half budget and budget: hold.
	assert.Equal(t, 0, runTicks(s, clock, 40, 8*time.Millisecond, interval))
	assert.Equal(t, LevelMedium, s.Level())

	s.Reset()
	runTicks(s, clock, 30, 15*time.Millisecond, interval)
	require.Equal(t, LevelMedium, s.Level())
	assert.Equal(t, 1, runTicks(s, clock, 30, 3*time.Millisecond, interval))
	assert.Equal(t, LevelHigh, s.Level())
}

func TestScheduler_ShouldProcessFrame(t *testing.T) {
	t.Parallel()
	s, clock := newTestScheduler(t)
	for i := 0; i < 5; i++ {
		assert.True(t, s.ShouldProcessFrame())
	}

	runTicks(s, clock, 30, 15*time.Millisecond, time.Second/60)
	require.Equal(t, LevelMedium, s.Level())
	var got []bool
	for i := 0; i < 6; i++ {
		got = append(got, s.ShouldProcessFrame())
	}
	assert.Equal(t, []bool{true, false, true, false, true, false}, got)
}

func TestScheduler_Stats(t *testing.T) {
	t.Parallel()
	s, clock := newTestScheduler(t)
	assert.Equal(t, Stats{Level: LevelHigh}, s.Stats())

	runTicks(s, clock, 21, 5*time.Millisecond, 20*time.Millisecond)
	st := s.Stats()
	assert.InDelta(t, 50, st.FPS, 1e-6)
	assert.InDelta(t, 5, st.AvgProcessingMs, 1e-9)
	assert.Zero(t, st.DropRatePct)
	assert.Equal(t, LevelHigh, st.Level)
}

func TestScheduler_ResetIdempotent(t *testing.T) {
	t.Parallel()
	s, clock := newTestScheduler(t)
	runTicks(s, clock, 30, 15*time.Millisecond, 30*time.Millisecond)
	s.ShouldProcessFrame()

	s.Reset()
	first := s.Stats()
	s.Reset()
	assert.Equal(t, first, s.Stats())
	assert.Equal(t, Stats{Level: LevelHigh}, first)
	assert.True(t, s.ShouldProcessFrame())
}
