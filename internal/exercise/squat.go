package exercise

import (
	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/smoothing"
)

// LegPhase buckets one leg's knee angle. The numeric values are part of the
// stance code and must not change.
type LegPhase int

const (
	LegMissing    LegPhase = 0
	LegDeep       LegPhase = 1
	LegTransition LegPhase = 2
	LegUpright    LegPhase = 3
)

// Stance is the pair of leg phases observed in one frame.
type Stance struct {
	Left, Right LegPhase
}

// Code is the product of the two phases: 0 when a leg is missing, 1 when both
// are deep, 9 when both are upright.
func (s Stance) Code() int {
	return int(s.Left) * int(s.Right)
}

// StanceClass is the interpretation of a stance.
type StanceClass int

const (
	StanceMissing StanceClass = iota
	StanceDeep
	StanceDeepening // one leg deep, the other in transition
	StanceUneven    // one leg deep, the other upright
	StanceMoving    // both legs in transition
	StanceExtending // one leg upright, the other in transition
	StanceUpright
)

var stanceTable = [4][4]StanceClass{
	LegMissing:    {StanceMissing, StanceMissing, StanceMissing, StanceMissing},
	LegDeep:       {StanceMissing, StanceDeep, StanceDeepening, StanceUneven},
	LegTransition: {StanceMissing, StanceDeepening, StanceMoving, StanceExtending},
	LegUpright:    {StanceMissing, StanceUneven, StanceExtending, StanceUpright},
}

// Class looks the stance up in the classification table.
func (s Stance) Class() StanceClass {
	return stanceTable[s.Left][s.Right]
}

// Feedback returns the cue for the stance, if any.
func (s Stance) Feedback() FormIssue {
	switch s.Class() {
	case StanceMissing:
		return IssueLandmarksMissing
	case StanceDeepening:
		if s.Left == LegTransition {
			return IssueGoDeeperLeft
		}
		return IssueGoDeeperRight
	case StanceUneven:
		return IssueUnevenSquat
	case StanceExtending:
		if s.Left == LegTransition {
			return IssueExtendLeftLeg
		}
		return IssueExtendRightLeg
	}
	return ""
}

// Squat counts squats from the stance of both legs. A repetition is counted on
// every entry into the both-deep stance from any other stance, unless the
// previous deep stance ended less than MinDescent seconds earlier.
type Squat struct {
	cfg         SquatConfig
	left, right *smoothing.Buffer
	history

	stance     Stance
	prev       Stance
	leftAngle  float64
	rightAngle float64
	feedback   FormIssue

	started    bool
	cycleStart float64 // last upright frame or last exit from deep
	exited     bool
	lastExit   float64
	sawUneven  bool
}

// NewSquat creates a squat detector.
func NewSquat(cfg SquatConfig) *Squat {
	d := &Squat{
		cfg:   cfg,
		left:  smoothing.New(cfg.SmoothingWindow),
		right: smoothing.New(cfg.SmoothingWindow),
	}
	d.Reset()
	return d
}

func (d *Squat) Kind() Kind { return KindSquat }

func (d *Squat) legPhase(buf *smoothing.Buffer, angle *float64, hip, knee, ankle pose.Landmark) LegPhase {
	if !pose.Visible(d.cfg.MinVisibility, hip, knee, ankle) {
		return LegMissing
	}
	*angle = buf.Add(pose.AngleAt(hip, knee, ankle))
	switch {
	case *angle <= d.cfg.DeepAngle:
		return LegDeep
	case *angle >= d.cfg.UprightAngle:
		return LegUpright
	default:
		return LegTransition
	}
}

func (d *Squat) Process(lm []pose.Landmark, ts float64) int {
	if !pose.Valid(lm) {
		return d.count()
	}

	d.prev = d.stance
	d.stance = Stance{
		Left:  d.legPhase(d.left, &d.leftAngle, lm[pose.LeftHip], lm[pose.LeftKnee], lm[pose.LeftAnkle]),
		Right: d.legPhase(d.right, &d.rightAngle, lm[pose.RightHip], lm[pose.RightKnee], lm[pose.RightAnkle]),
	}
	d.feedback = d.stance.Feedback()

	if !d.started {
		d.started = true
		d.cycleStart = ts
	}

	code, prevCode := d.stance.Code(), d.prev.Code()
	if prevCode == 1 && code != 1 {
		d.exited = true
		d.lastExit = ts
		d.cycleStart = ts
		d.sawUneven = false
	}

	switch code {
	case 9:
		d.cycleStart = ts
		d.sawUneven = false
	case 3:
		d.sawUneven = true
	case 1:
		if prevCode != 1 && (!d.exited || ts-d.lastExit >= d.cfg.MinDescent) {
			var uneven FormIssue
			if d.sawUneven {
				uneven = IssueUnevenSquat
			}
			d.add(RepRecord{
				StartTime:  d.cycleStart,
				EndTime:    ts,
				Extremum:   (d.leftAngle + d.rightAngle) / 2,
				Unit:       UnitDegrees,
				Correct:    !d.sawUneven,
				FormIssues: issues(uneven),
			})
		}
	}

	return d.count()
}

func (d *Squat) Reps() []RepRecord { return d.snapshot() }

func (d *Squat) Metrics() Metrics {
	state := StateIdle
	switch d.stance.Class() {
	case StanceUpright:
		state = StateStanding
	case StanceDeep:
		state = StateSquatting
	}
	return Metrics{
		Kind:  KindSquat,
		State: state,
		Count: d.count(),
		Values: map[string]float64{
			"left_knee_angle":  d.leftAngle,
			"right_knee_angle": d.rightAngle,
			"stance_code":      float64(d.stance.Code()),
		},
		Feedback: issues(d.feedback),
	}
}

func (d *Squat) Reset() {
	d.left.Reset()
	d.right.Reset()
	d.clear()
	d.stance = Stance{}
	d.prev = Stance{}
	d.leftAngle = 0
	d.rightAngle = 0
	d.feedback = ""
	d.started = false
	d.cycleStart = 0
	d.exited = false
	d.lastExit = 0
	d.sawUneven = false
}
