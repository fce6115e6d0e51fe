package exercise

import (
	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/smoothing"
)

// PullUp counts pull-ups from the elbow angle and judges chin height by how far
// the nose rises above its position in the first valid frame.
type PullUp struct {
	cfg   PullUpConfig
	elbow *smoothing.Buffer
	history

	state       State
	elbowAngle  float64
	headRise    float64
	baseline    float64
	hasBaseline bool

	upStart  float64
	minElbow float64
	peakRise float64
}

// NewPullUp creates a pull-up detector.
func NewPullUp(cfg PullUpConfig) *PullUp {
	d := &PullUp{
		cfg:   cfg,
		elbow: smoothing.New(cfg.SmoothingWindow),
	}
	d.Reset()
	return d
}

func (d *PullUp) Kind() Kind { return KindPullUp }

func (d *PullUp) Process(lm []pose.Landmark, ts float64) int {
	if !pose.Valid(lm) {
		return d.count()
	}

	nose := lm[pose.Nose].Y
	if !d.hasBaseline {
		d.baseline = nose
		d.hasBaseline = true
	}
	d.headRise = d.baseline - nose

	left := pose.AngleAt(lm[pose.LeftShoulder], lm[pose.LeftElbow], lm[pose.LeftWrist])
	right := pose.AngleAt(lm[pose.RightShoulder], lm[pose.RightElbow], lm[pose.RightWrist])
	d.elbowAngle = d.elbow.Add((left + right) / 2)

	switch d.state {
	case StateWaiting:
		if d.elbowAngle <= d.cfg.UpAngle {
			d.state = StateUp
			d.upStart = ts
			d.minElbow = d.elbowAngle
			d.peakRise = d.headRise
		}
	case StateUp:
		d.minElbow = min(d.minElbow, d.elbowAngle)
		d.peakRise = max(d.peakRise, d.headRise)
		if d.elbowAngle >= d.cfg.HangAngle {
			d.state = StateWaiting
			if ts-d.upStart >= d.cfg.MinDuration {
				var chin FormIssue
				if d.peakRise < d.cfg.MinHeadRise {
					chin = IssueChinBelowBar
				}
				d.add(RepRecord{
					StartTime:  d.upStart,
					EndTime:    ts,
					Extremum:   d.minElbow,
					Unit:       UnitDegrees,
					Correct:    chin == "",
					FormIssues: issues(chin),
				})
			}
			d.upStart = 0
			d.minElbow = 180
			d.peakRise = 0
		}
	}

	return d.count()
}

func (d *PullUp) Reps() []RepRecord { return d.snapshot() }

func (d *PullUp) Metrics() Metrics {
	var feedback []FormIssue
	if d.state == StateUp && d.peakRise < d.cfg.MinHeadRise {
		feedback = append(feedback, IssueChinBelowBar)
	}
	return Metrics{
		Kind:  KindPullUp,
		State: d.state,
		Count: d.count(),
		Values: map[string]float64{
			"elbow_angle": d.elbowAngle,
			"head_rise":   d.headRise,
		},
		Feedback: feedback,
	}
}

func (d *PullUp) Reset() {
	d.elbow.Reset()
	d.clear()
	d.state = StateWaiting
	d.elbowAngle = 0
	d.headRise = 0
	d.baseline = 0
	d.hasBaseline = false
	d.upStart = 0
	d.minElbow = 180
	d.peakRise = 0
}
