package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)
	if d := clock.Since(past); d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestMockClock_AdvanceAndSet(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := NewMockClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	clock.Advance(15 * time.Millisecond)
	if d := clock.Since(start); d != 15*time.Millisecond {
		t.Errorf("Since() = %v, want 15ms", d)
	}

	later := start.Add(time.Hour)
	clock.Set(later)
	if got := clock.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestElapsedMillis(t *testing.T) {
	tests := []struct {
		now, since int64
		d          time.Duration
		want       bool
	}{
		{1500, 1000, 500 * time.Millisecond, true},
		{1499, 1000, 500 * time.Millisecond, false},
		{4000, 1000, 3 * time.Second, true},
		{3999, 1000, 3 * time.Second, false},
		{1000, 1000, 0, true},
	}
	for _, tt := range tests {
		if got := ElapsedMillis(tt.now, tt.since, tt.d); got != tt.want {
			t.Errorf("ElapsedMillis(%d, %d, %v) = %v, want %v", tt.now, tt.since, tt.d, got, tt.want)
		}
	}
}
