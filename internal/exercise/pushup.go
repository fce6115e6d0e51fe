package exercise

import (
	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/smoothing"
)

// PushUp counts push-ups from the mean elbow angle of both arms.
type PushUp struct {
	cfg   PushUpConfig
	elbow *smoothing.Buffer
	history

	state      State
	elbowAngle float64
	plankAngle float64
	depth      float64

	// dip trackers, reset after every completed dip
	dipStart    float64
	minElbow    float64
	minPlank    float64
	bottomDepth float64
}

// NewPushUp creates a push-up detector.
func NewPushUp(cfg PushUpConfig) *PushUp {
	d := &PushUp{
		cfg:   cfg,
		elbow: smoothing.New(cfg.SmoothingWindow),
	}
	d.Reset()
	return d
}

func (d *PushUp) Kind() Kind { return KindPushUp }

func (d *PushUp) Process(lm []pose.Landmark, ts float64) int {
	if !pose.Valid(lm) {
		return d.count()
	}

	left := pose.AngleAt(lm[pose.LeftShoulder], lm[pose.LeftElbow], lm[pose.LeftWrist])
	right := pose.AngleAt(lm[pose.RightShoulder], lm[pose.RightElbow], lm[pose.RightWrist])
	d.elbowAngle = d.elbow.Add((left + right) / 2)

	d.plankAngle = (pose.AngleAt(lm[pose.LeftShoulder], lm[pose.LeftHip], lm[pose.LeftAnkle]) +
		pose.AngleAt(lm[pose.RightShoulder], lm[pose.RightHip], lm[pose.RightAnkle])) / 2

	// Wrists sit below the shoulders while the hands are planted.
	d.depth = pose.Midpoint(lm[pose.LeftWrist], lm[pose.RightWrist]).Y -
		pose.Midpoint(lm[pose.LeftShoulder], lm[pose.RightShoulder]).Y

	switch d.state {
	case StateUp:
		if d.elbowAngle <= d.cfg.DownAngle {
			d.state = StateDown
			d.dipStart = ts
			d.minElbow = d.elbowAngle
			d.minPlank = d.plankAngle
			d.bottomDepth = d.depth
		}
	case StateDown:
		if d.elbowAngle < d.minElbow {
			d.minElbow = d.elbowAngle
			d.bottomDepth = d.depth
		}
		d.minPlank = min(d.minPlank, d.plankAngle)

		if d.elbowAngle >= d.cfg.UpAngle {
			d.state = StateUp
			if ts-d.dipStart >= d.cfg.MinDipDuration {
				d.record(ts)
			}
			d.resetDip()
		}
	}

	return d.count()
}

func (d *PushUp) record(ts float64) {
	var shallow, sag, bend FormIssue
	if d.bottomDepth < d.cfg.MinDepth {
		shallow = IssueShallowDepth
	}
	if d.minPlank < d.cfg.MinPlankAngle {
		sag = IssueHipSag
	}
	if d.minElbow > d.cfg.DownAngle {
		bend = IssueInsufficientBend
	}
	found := issues(shallow, sag, bend)
	d.add(RepRecord{
		StartTime:  d.dipStart,
		EndTime:    ts,
		Extremum:   d.minElbow,
		Unit:       UnitDegrees,
		Correct:    len(found) == 0,
		FormIssues: found,
	})
}

func (d *PushUp) resetDip() {
	d.dipStart = 0
	d.minElbow = 180
	d.minPlank = 180
	d.bottomDepth = 0
}

func (d *PushUp) Reps() []RepRecord { return d.snapshot() }

func (d *PushUp) Metrics() Metrics {
	var feedback []FormIssue
	if d.state == StateDown && d.plankAngle < d.cfg.MinPlankAngle {
		feedback = append(feedback, IssueHipSag)
	}
	return Metrics{
		Kind:  KindPushUp,
		State: d.state,
		Count: d.count(),
		Values: map[string]float64{
			"elbow_angle": d.elbowAngle,
			"plank_angle": d.plankAngle,
			"depth":       d.depth,
		},
		Feedback: feedback,
	}
}

func (d *PushUp) Reset() {
	d.elbow.Reset()
	d.clear()
	d.state = StateUp
	d.elbowAngle = 0
	d.plankAngle = 0
	d.depth = 0
	d.resetDip()
}
