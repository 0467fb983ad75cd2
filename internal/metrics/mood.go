package metrics

// MoodComputer extracts the four mood dimensions from the single-trial
// mood payload.
type MoodComputer struct{}

func (MoodComputer) TaskType() string { return "mood" }

func (MoodComputer) Compute(trials []Trial, durationMs float64) Summary {
	summary := Summary{
		"valence":   nil,
		"arousal":   nil,
		"stress":    nil,
		"sharpness": nil,
	}
	if len(trials) == 0 {
		return summary
	}
	trial := trials[0]
	if trial.Valence != nil {
		summary["valence"] = *trial.Valence
	}
	if trial.Arousal != nil {
		summary["arousal"] = *trial.Arousal
	}
	if trial.Stress != nil {
		summary["stress"] = *trial.Stress
	}
	if trial.Sharpness != nil {
		summary["sharpness"] = *trial.Sharpness
	}
	return summary
}
