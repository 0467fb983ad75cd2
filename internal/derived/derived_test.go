package derived

import (
	"math"
	"testing"
	"time"
)

func TestProximityBinBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		delta    time.Duration
		hasDelta bool
		want     string
	}{
		{"no plunge on record", 0, false, BinNoPlunge},
		{"session before the plunge", -5 * time.Minute, true, BinPre},
		{"immediately after", 30 * time.Second, true, Bin0to15m},
		{"exactly fifteen minutes", 15 * time.Minute, true, Bin0to15m},
		{"just past fifteen minutes", 15*time.Minute + time.Second, true, Bin15to60m},
		{"exactly one hour", 60 * time.Minute, true, Bin15to60m},
		{"ninety minutes", 90 * time.Minute, true, Bin1to3h},
		{"exactly three hours", 3 * time.Hour, true, Bin1to3h},
		{"four hours", 4 * time.Hour, true, BinOver3h},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ProximityBin(tc.delta, tc.hasDelta); got != tc.want {
				t.Errorf("ProximityBin(%v) = %q, want %q", tc.delta, got, tc.want)
			}
		})
	}
}

func TestTimeSinceLastPlunge(t *testing.T) {
	ref := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	plunges := []time.Time{
		ref.Add(-48 * time.Hour),
		ref.Add(-30 * time.Minute),
		ref.Add(2 * time.Hour), // future plunge must be ignored
	}

	delta, ok := TimeSinceLastPlunge(plunges, ref)
	if !ok {
		t.Fatal("expected a prior plunge")
	}
	if delta != 30*time.Minute {
		t.Errorf("delta = %v, want 30m", delta)
	}

	if _, ok := TimeSinceLastPlunge(nil, ref); ok {
		t.Error("expected no prior plunge for empty history")
	}
}

func TestSameDayPlungeCount(t *testing.T) {
	ref := time.Date(2026, 1, 10, 23, 0, 0, 0, time.UTC)
	plunges := []time.Time{
		time.Date(2026, 1, 10, 0, 15, 0, 0, time.UTC),
		time.Date(2026, 1, 10, 22, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 9, 23, 59, 0, 0, time.UTC),
	}
	if got := SameDayPlungeCount(plunges, ref); got != 2 {
		t.Errorf("SameDayPlungeCount = %d, want 2", got)
	}
}

func TestRollingFrequency(t *testing.T) {
	ref := time.Date(2026, 1, 28, 9, 0, 0, 0, time.UTC)
	plunges := []time.Time{
		ref.Add(-24 * time.Hour),
		ref.Add(-3 * 24 * time.Hour),
		ref.Add(-10 * 24 * time.Hour), // outside 7d, inside 28d
	}

	if got := RollingFrequency(plunges, ref, 7); math.Abs(got-2.0/7.0) > 1e-9 {
		t.Errorf("7d frequency = %v, want %v", got, 2.0/7.0)
	}
	if got := RollingFrequency(plunges, ref, 28); math.Abs(got-3.0/28.0) > 1e-9 {
		t.Errorf("28d frequency = %v, want %v", got, 3.0/28.0)
	}
	if got := RollingFrequency(plunges, ref, 0); got != 0.0 {
		t.Errorf("zero-day window = %v, want 0", got)
	}
}

func TestSeason(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string
	}{
		{time.January, "winter"},
		{time.March, "spring"},
		{time.July, "summer"},
		{time.October, "autumn"},
		{time.December, "winter"},
	}
	for _, tc := range tests {
		d := time.Date(2026, tc.month, 15, 0, 0, 0, 0, time.UTC)
		if got := Season(d); got != tc.want {
			t.Errorf("Season(%s) = %q, want %q", tc.month, got, tc.want)
		}
	}
}

func TestSessionVariablesSnapshot(t *testing.T) {
	start := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	plunges := []time.Time{start.Add(-10 * time.Minute)}

	vars := SessionVariables(plunges, start)

	if got := vars["proximity_bin"]; got != Bin0to15m {
		t.Errorf("proximity_bin = %v, want %q", got, Bin0to15m)
	}
	if got := vars["time_since_last_plunge_seconds"]; got != 600.0 {
		t.Errorf("time_since_last_plunge_seconds = %v, want 600", got)
	}
	if got := vars["same_day_plunge_count"]; got != 1 {
		t.Errorf("same_day_plunge_count = %v, want 1", got)
	}
	if got := vars["season"]; got != "summer" {
		t.Errorf("season = %v, want summer", got)
	}
}

func TestSessionVariablesNoHistory(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	vars := SessionVariables(nil, start)

	if got := vars["proximity_bin"]; got != BinNoPlunge {
		t.Errorf("proximity_bin = %v, want %q", got, BinNoPlunge)
	}
	if vars["time_since_last_plunge_seconds"] != nil {
		t.Errorf("time_since_last_plunge_seconds = %v, want nil", vars["time_since_last_plunge_seconds"])
	}
	if got := vars["rolling_frequency_7d"]; got != 0.0 {
		t.Errorf("rolling_frequency_7d = %v, want 0", got)
	}
}
