package metrics

// SARTComputer computes summary metrics for the Sustained Attention to
// Response Task (go/no-go over digits, no-go on 3).
type SARTComputer struct{}

func (SARTComputer) TaskType() string { return "sart" }

func (SARTComputer) Compute(trials []Trial, durationMs float64) Summary {
	commissionErrors := 0
	omissionErrors := 0
	var goRTs []float64

	for _, t := range trials {
		if t.IsNogo {
			if t.RespondedOr(false) {
				commissionErrors++
			}
			continue
		}
		if !t.RespondedOr(false) {
			omissionErrors++
			continue
		}
		if t.RTMs != nil {
			goRTs = append(goRTs, *t.RTMs)
		}
	}

	summary := Summary{
		"commission_errors":  commissionErrors,
		"omission_errors":    omissionErrors,
		"go_median_rt":       nil,
		"go_rt_sd":           nil,
		"post_error_slowing": nil,
	}

	var goMedian float64
	haveMedian := false
	if len(goRTs) > 0 {
		goMedian = median(goRTs)
		summary["go_median_rt"] = goMedian
		haveMedian = true
	}
	if len(goRTs) > 1 {
		summary["go_rt_sd"] = sampleStdDev(goRTs)
	}

	// Post-error slowing: mean RT on the go trial immediately following each
	// commission error, relative to the overall go median. Only meaningful
	// with at least 3 commission errors.
	if commissionErrors >= 3 && haveMedian {
		var postErrorRTs []float64
		for i, t := range trials {
			if !t.IsNogo || !t.RespondedOr(false) || i+1 >= len(trials) {
				continue
			}
			next := trials[i+1]
			if !next.IsNogo && next.RespondedOr(false) && next.RTMs != nil {
				postErrorRTs = append(postErrorRTs, *next.RTMs)
			}
		}
		if len(postErrorRTs) > 0 {
			summary["post_error_slowing"] = mean(postErrorRTs) - goMedian
		}
	}

	return summary
}
