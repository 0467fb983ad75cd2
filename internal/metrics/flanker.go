package metrics

// FlankerComputer computes summary metrics for the Eriksen Flanker task.
type FlankerComputer struct{}

func (FlankerComputer) TaskType() string { return "flanker" }

func (FlankerComputer) Compute(trials []Trial, durationMs float64) Summary {
	var congruent, incongruent []Trial
	for _, t := range trials {
		if t.IsCongruent {
			congruent = append(congruent, t)
		} else {
			incongruent = append(incongruent, t)
		}
	}

	cMedian, cHave := partitionMedianRT(congruent)
	iMedian, iHave := partitionMedianRT(incongruent)

	summary := Summary{
		"congruent_median_rt":   nil,
		"incongruent_median_rt": nil,
		"conflict_effect_ms":    nil,
		"congruent_accuracy":    partitionAccuracy(congruent),
		"incongruent_accuracy":  partitionAccuracy(incongruent),
	}
	if cHave {
		summary["congruent_median_rt"] = cMedian
	}
	if iHave {
		summary["incongruent_median_rt"] = iMedian
	}
	if cHave && iHave {
		summary["conflict_effect_ms"] = iMedian - cMedian
	}
	return summary
}

func partitionMedianRT(trials []Trial) (float64, bool) {
	var rts []float64
	for _, t := range trials {
		if t.RespondedOr(false) && t.RTMs != nil {
			rts = append(rts, *t.RTMs)
		}
	}
	if len(rts) == 0 {
		return 0, false
	}
	return median(rts), true
}

func partitionAccuracy(trials []Trial) any {
	if len(trials) == 0 {
		return nil
	}
	correct := 0
	for _, t := range trials {
		if t.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(trials))
}
