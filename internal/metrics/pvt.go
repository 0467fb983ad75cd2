package metrics

// PVTComputer computes summary metrics for the Psychomotor Vigilance Task.
type PVTComputer struct{}

func (PVTComputer) TaskType() string { return "pvt" }

// Compute derives RT statistics over valid trials: responded,
// non-anticipation responses in the 100-2000 ms window. Lapses (RT > 500 ms)
// are counted independently of that window.
func (PVTComputer) Compute(trials []Trial, durationMs float64) Summary {
	anticipationCount := 0
	lapseCount := 0
	var validRTs []float64

	for _, t := range trials {
		if t.IsAnticipation {
			anticipationCount++
			continue
		}
		if !t.RespondedOr(true) {
			continue
		}
		if t.RTMs != nil && *t.RTMs > 500 {
			lapseCount++
		}
		if t.RTMs != nil && *t.RTMs >= 100 && *t.RTMs <= 2000 {
			validRTs = append(validRTs, *t.RTMs)
		}
	}

	summary := Summary{
		"median_rt":          nil,
		"mean_rt":            nil,
		"rt_sd":              nil,
		"lapse_count":        lapseCount,
		"anticipation_count": anticipationCount,
		"valid_trial_count":  len(validRTs),
	}
	if len(validRTs) == 0 {
		return summary
	}

	summary["median_rt"] = median(validRTs)
	summary["mean_rt"] = mean(validRTs)
	if len(validRTs) > 1 {
		summary["rt_sd"] = sampleStdDev(validRTs)
	} else {
		summary["rt_sd"] = 0.0
	}
	return summary
}
