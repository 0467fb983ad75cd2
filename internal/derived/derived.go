// Package derived computes plunge-proximity features for a session start
// time from the participant's prior plunge history. All functions are pure
// so they can be tested without a database.
package derived

import (
	"time"

	"github.com/andytwoods/iceplunge/internal/models"
)

// Proximity bins.
const (
	BinNoPlunge = "no_plunge"
	BinPre      = "pre"
	Bin0to15m   = "0-15m"
	Bin15to60m  = "15-60m"
	Bin1to3h    = "1-3h"
	BinOver3h   = ">3h"
)

// TimeSinceLastPlunge returns the delta between the most recent plunge
// strictly before ref and ref itself. The second return is false when no
// plunge precedes ref.
func TimeSinceLastPlunge(plunges []time.Time, ref time.Time) (time.Duration, bool) {
	var latest time.Time
	found := false
	for _, p := range plunges {
		if p.Before(ref) && (!found || p.After(latest)) {
			latest = p
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return ref.Sub(latest), true
}

// ProximityBin classifies a delta into a named bin. Boundaries are
// inclusive on the named threshold: exactly 15 minutes is "0-15m".
func ProximityBin(delta time.Duration, hasDelta bool) string {
	if !hasDelta {
		return BinNoPlunge
	}
	if delta < 0 {
		return BinPre
	}
	minutes := delta.Minutes()
	if minutes <= 15 {
		return Bin0to15m
	}
	if minutes <= 60 {
		return Bin15to60m
	}
	if minutes/60 <= 3 {
		return Bin1to3h
	}
	return BinOver3h
}

// SameDayPlungeCount counts plunges on the same UTC calendar date as ref.
func SameDayPlungeCount(plunges []time.Time, ref time.Time) int {
	refY, refM, refD := ref.UTC().Date()
	count := 0
	for _, p := range plunges {
		y, m, d := p.UTC().Date()
		if y == refY && m == refM && d == refD {
			count++
		}
	}
	return count
}

// RollingFrequency returns plunges per day within the days-day window
// (ref - days, ref]. Returns 0.0 for a non-positive window.
func RollingFrequency(plunges []time.Time, ref time.Time, days int) float64 {
	if days <= 0 {
		return 0.0
	}
	windowStart := ref.AddDate(0, 0, -days)
	count := 0
	for _, p := range plunges {
		if p.After(windowStart) && !p.After(ref) {
			count++
		}
	}
	return float64(count) / float64(days)
}

// Season returns the northern-hemisphere meteorological season for t.
func Season(t time.Time) string {
	switch t.Month() {
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	case time.September, time.October, time.November:
		return "autumn"
	default:
		return "winter"
	}
}

// SessionVariables computes the full derived-variable snapshot stored on a
// session when it starts. The snapshot is written once and never
// recomputed on later session mutations.
func SessionVariables(plunges []time.Time, sessionStart time.Time) models.JSONMap {
	delta, hasDelta := TimeSinceLastPlunge(plunges, sessionStart)

	var sinceSeconds any
	if hasDelta {
		sinceSeconds = delta.Seconds()
	}

	return models.JSONMap{
		"time_since_last_plunge_seconds": sinceSeconds,
		"proximity_bin":                  ProximityBin(delta, hasDelta),
		"same_day_plunge_count":          SameDayPlungeCount(plunges, sessionStart),
		"rolling_frequency_7d":           RollingFrequency(plunges, sessionStart, 7),
		"rolling_frequency_28d":          RollingFrequency(plunges, sessionStart, 28),
		"season":                         Season(sessionStart),
	}
}
