// Package exercise implements the per-exercise repetition detectors.
//
// Each detector is a small state machine fed one landmark frame at a time by a
// single caller. Process is synchronous and constant-time per frame, so the same
// detector serves a live camera callback and a batch loop over decoded video.
package exercise

import (
	"errors"
	"slices"

	"github.com/ayusman/repcount/internal/pose"
)

// ErrUnknownExercise is returned when an exercise name matches no detector.
var ErrUnknownExercise = errors.New("unknown exercise")

// Kind identifies an exercise.
type Kind string

const (
	KindPushUp       Kind = "push-up"
	KindPullUp       Kind = "pull-up"
	KindSitUp        Kind = "sit-up"
	KindVerticalJump Kind = "vertical-jump"
	KindShuttleRun   Kind = "shuttle-run"
	KindSquat        Kind = "squat"
	KindSitAndReach  Kind = "sit-and-reach"
	KindBroadJump    Kind = "broad-jump"
)

// State is the active phase of a detector's state machine.
type State string

const (
	StateUp        State = "up"
	StateDown      State = "down"
	StateWaiting   State = "waiting"
	StateIdle      State = "idle"
	StateGrounded  State = "grounded"
	StateAirborne  State = "airborne"
	StateForward   State = "forward"
	StateBackward  State = "backward"
	StateStanding  State = "standing"
	StateSquatting State = "squatting"
	StateReaching  State = "reaching"
)

// Unit names the physical quantity of a RepRecord's Extremum.
type Unit string

const (
	UnitDegrees     Unit = "deg"
	UnitMeters      Unit = "m"
	UnitCentimeters Unit = "cm"
)

// FormIssue tags a specific form problem.
type FormIssue string

const (
	IssueShallowDepth     FormIssue = "shallow_depth"
	IssueHipSag           FormIssue = "hip_sag"
	IssueInsufficientBend FormIssue = "insufficient_bend"
	IssueChinBelowBar     FormIssue = "chin_below_bar"
	IssuePartialRange     FormIssue = "partial_range"
	IssueUnevenLanding    FormIssue = "uneven_landing"
	IssueShortLeg         FormIssue = "short_leg"
	IssueLandmarksMissing FormIssue = "landmarks_missing"
	IssueUnevenSquat      FormIssue = "uneven_squat"
	IssueGoDeeperLeft     FormIssue = "go_deeper_left"
	IssueGoDeeperRight    FormIssue = "go_deeper_right"
	IssueExtendLeftLeg    FormIssue = "extend_left_leg"
	IssueExtendRightLeg   FormIssue = "extend_right_leg"
	IssueBentKnees        FormIssue = "bent_knees"
)

// RepRecord describes one completed repetition.
type RepRecord struct {
	Index      int         `json:"index"` // 1-based
	StartTime  float64     `json:"start_time"`
	EndTime    float64     `json:"end_time"`
	Duration   float64     `json:"duration"`
	Extremum   float64     `json:"extremum"` // angle, height or distance reached
	Unit       Unit        `json:"unit"`
	Correct    bool        `json:"correct"`
	FormIssues []FormIssue `json:"form_issues,omitempty"`
}

// Metrics is a live snapshot of a detector for display.
type Metrics struct {
	Kind     Kind               `json:"kind"`
	State    State              `json:"state"`
	Count    int                `json:"count"`
	Values   map[string]float64 `json:"values"`
	Feedback []FormIssue        `json:"feedback,omitempty"`
}

// Detector consumes landmark frames and reports completed repetitions.
//
// Process returns the current repetition count. Frames with fewer than
// pose.NumLandmarks entries or non-finite coordinates are ignored and the
// unchanged count is returned. Implementations are not safe for concurrent use.
type Detector interface {
	Kind() Kind
	Process(landmarks []pose.Landmark, timestamp float64) int
	Reps() []RepRecord
	Metrics() Metrics
	Reset()
}

// history is the append-only repetition list shared by the cyclic detectors.
type history struct {
	reps []RepRecord
}

func (h *history) add(r RepRecord) {
	r.Index = len(h.reps) + 1
	r.Duration = r.EndTime - r.StartTime
	h.reps = append(h.reps, r)
}

func (h *history) count() int {
	return len(h.reps)
}

func (h *history) snapshot() []RepRecord {
	if len(h.reps) == 0 {
		return nil
	}
	return slices.Clone(h.reps)
}

func (h *history) clear() {
	h.reps = h.reps[:0]
}

// issues returns nil for an empty list so records compare equal regardless of
// how they were built.
func issues(list ...FormIssue) []FormIssue {
	var out []FormIssue
	for _, i := range list {
		if i != "" {
			out = append(out, i)
		}
	}
	return out
}
