package exercise

import (
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the repetitions of one session.
type Summary struct {
	Kind           Kind              `json:"kind"`
	Total          int               `json:"total"`
	Correct        int               `json:"correct"`
	Incorrect      int               `json:"incorrect"`
	FormScore      float64           `json:"form_score"` // percent correct, 0-100
	Best           float64           `json:"best"`
	Unit           Unit              `json:"unit,omitempty"`
	MeanDuration   float64           `json:"mean_duration"`
	DurationStdDev float64           `json:"duration_stddev"`
	IssueCounts    map[FormIssue]int `json:"issue_counts,omitempty"`
}

// lowerIsBetter marks exercises whose extremum is a joint angle where a smaller
// value means a deeper repetition.
var lowerIsBetter = map[Kind]bool{
	KindPushUp: true,
	KindPullUp: true,
	KindSquat:  true,
}

// Summarize computes session totals from a detector's records.
func Summarize(kind Kind, reps []RepRecord) Summary {
	s := Summary{Kind: kind, Total: len(reps)}
	if len(reps) == 0 {
		return s
	}

	durations := make([]float64, len(reps))
	s.Best = reps[0].Extremum
	s.Unit = reps[0].Unit
	for i, r := range reps {
		durations[i] = r.Duration
		if r.Correct {
			s.Correct++
		}
		if lowerIsBetter[kind] {
			s.Best = min(s.Best, r.Extremum)
		} else {
			s.Best = max(s.Best, r.Extremum)
		}
		for _, issue := range r.FormIssues {
			if s.IssueCounts == nil {
				s.IssueCounts = make(map[FormIssue]int)
			}
			s.IssueCounts[issue]++
		}
	}
	s.Incorrect = s.Total - s.Correct
	s.FormScore = 100 * float64(s.Correct) / float64(s.Total)

	if len(durations) > 1 {
		s.MeanDuration, s.DurationStdDev = stat.MeanStdDev(durations, nil)
	} else {
		s.MeanDuration = durations[0]
	}

	return s
}
