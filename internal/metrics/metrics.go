package metrics

// Trial is one stimulus/response event inside a task attempt. The client
// sends task-specific subsets of these fields; absent fields stay nil or
// false and every computer tolerates them.
type Trial struct {
	RTMs           *float64 `json:"rt_ms,omitempty"`
	Responded      *bool    `json:"responded,omitempty"`
	IsAnticipation bool     `json:"is_anticipation,omitempty"`
	Digit          *int     `json:"digit,omitempty"`
	IsNogo         bool     `json:"is_nogo,omitempty"`
	IsCongruent    bool     `json:"is_congruent,omitempty"`
	Correct        bool     `json:"correct,omitempty"`
	Valence        *int     `json:"valence,omitempty"`
	Arousal        *int     `json:"arousal,omitempty"`
	Stress         *int     `json:"stress,omitempty"`
	Sharpness      *int     `json:"sharpness,omitempty"`
}

// RespondedOr returns the responded flag, or def when the client omitted it.
// The default differs per task: reaction-time tasks assume a response was
// made, go/no-go tasks assume it was not.
func (t Trial) RespondedOr(def bool) bool {
	if t.Responded == nil {
		return def
	}
	return *t.Responded
}

// Summary holds the server-computed metrics for one task attempt.
// Null metrics (for example RT stats with no valid trials) are stored as
// nil values so they serialize as JSON null.
type Summary map[string]any

// Computer computes the summary metrics for one task type.
type Computer interface {
	TaskType() string
	Compute(trials []Trial, durationMs float64) Summary
}

// Computers returns the dispatch table mapping task type to its computer.
// Task types without an entry keep the client-supplied summary.
func Computers() map[string]Computer {
	table := make(map[string]Computer)
	for _, c := range []Computer{
		PVTComputer{},
		SARTComputer{},
		FlankerComputer{},
		DigitSymbolComputer{},
		MoodComputer{},
	} {
		table[c.TaskType()] = c
	}
	return table
}
