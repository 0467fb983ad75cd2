// Package quality evaluates data-integrity flags over a submitted task
// attempt. Flags are informational and additive: they accumulate on the
// session and never block a submission.
package quality

import (
	"github.com/andytwoods/iceplunge/internal/metrics"
	"github.com/andytwoods/iceplunge/internal/models"
)

// Flag identifiers stored in CognitiveSession.QualityFlags.
const (
	FlagAnticipationBurst = "anticipation_burst"
	FlagExcessiveMisses   = "excessive_misses"
	FlagRapidResubmission = "rapid_resubmission"
	FlagVisibilityEvents  = "visibility_events"
)

// AnticipationBurst reports whether 3 or more anticipation responses occur
// in a single task.
func AnticipationBurst(trials []metrics.Trial) bool {
	count := 0
	for _, t := range trials {
		if t.IsAnticipation {
			count++
		}
	}
	return count >= 3
}

// ExcessiveMisses reports whether strictly more than half the trials have
// no response. A trial has no response when responded is false or rt_ms is
// absent.
func ExcessiveMisses(trials []metrics.Trial) bool {
	if len(trials) == 0 {
		return false
	}
	noResponse := 0
	for _, t := range trials {
		if !t.RespondedOr(true) || t.RTMs == nil {
			noResponse++
		}
	}
	return float64(noResponse)/float64(len(trials)) > 0.5
}

// VisibilityEvents reports whether the session's interruption log contains
// strictly more than 2 tab-hide entries.
func VisibilityEvents(meta models.JSONMap) bool {
	hidden := 0
	for _, entry := range meta.MapList(models.MetaInterruptionLogs) {
		if t, ok := entry["type"].(string); ok && t == "visibility_hidden" {
			hidden++
		}
	}
	return hidden > 2
}

// Flags assembles the flag list for one submission in a fixed order:
// anticipation, misses, resubmission, visibility. rapidResubmission is
// determined by the caller from the session store (a different completed
// session within 10 minutes of this session's start).
func Flags(trials []metrics.Trial, meta models.JSONMap, rapidResubmission bool) []string {
	var flags []string
	if AnticipationBurst(trials) {
		flags = append(flags, FlagAnticipationBurst)
	}
	if ExcessiveMisses(trials) {
		flags = append(flags, FlagExcessiveMisses)
	}
	if rapidResubmission {
		flags = append(flags, FlagRapidResubmission)
	}
	if VisibilityEvents(meta) {
		flags = append(flags, FlagVisibilityEvents)
	}
	return flags
}
