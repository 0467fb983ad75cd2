package metrics

// DigitSymbolComputer computes summary metrics for Digit Symbol Coding.
type DigitSymbolComputer struct{}

func (DigitSymbolComputer) TaskType() string { return "digit_symbol" }

func (DigitSymbolComputer) Compute(trials []Trial, durationMs float64) Summary {
	totalCorrect := 0
	totalErrors := 0
	for _, t := range trials {
		if t.Correct {
			totalCorrect++
		} else if t.RespondedOr(true) {
			totalErrors++
		}
	}
	totalResponses := totalCorrect + totalErrors

	summary := Summary{
		"correct_per_minute": nil,
		"total_correct":      totalCorrect,
		"total_errors":       totalErrors,
		"error_rate":         nil,
	}
	if durationMs > 0 {
		summary["correct_per_minute"] = float64(totalCorrect) / (durationMs / 60000)
	}
	if totalResponses > 0 {
		summary["error_rate"] = float64(totalErrors) / float64(totalResponses)
	}
	return summary
}
