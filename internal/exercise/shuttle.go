package exercise

import (
	"math"

	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/smoothing"
)

var footLandmarks = [...]int{
	pose.LeftAnkle, pose.RightAnkle,
	pose.LeftHeel, pose.RightHeel,
	pose.LeftFootIndex, pose.RightFootIndex,
}

type direction int8

const (
	still    direction = 0
	forward  direction = 1
	backward direction = -1
)

func (d direction) state() State {
	switch d {
	case forward:
		return StateForward
	case backward:
		return StateBackward
	default:
		return StateIdle
	}
}

// ShuttleRun counts turns of a shuttle run from the horizontal foot centroid.
// A direction is confirmed only when every vote in the window agrees; each
// confirmed reversal closes a leg.
type ShuttleRun struct {
	cfg    ShuttleConfig
	smooth *smoothing.Buffer
	history

	votes     []direction
	votePos   int
	voteCount int

	x         float64
	prevX     float64
	hasPrev   bool
	confirmed direction

	legStartX, legStartTime float64
	extremeX, extremeTime   float64
	lastSpan                float64
}

// NewShuttleRun creates a shuttle run detector.
func NewShuttleRun(cfg ShuttleConfig) *ShuttleRun {
	window := max(cfg.VoteWindow, 1)
	d := &ShuttleRun{
		cfg:    cfg,
		smooth: smoothing.New(cfg.SmoothingWindow),
		votes:  make([]direction, window),
	}
	d.Reset()
	return d
}

func (d *ShuttleRun) Kind() Kind { return KindShuttleRun }

func (d *ShuttleRun) Process(lm []pose.Landmark, ts float64) int {
	if !pose.Valid(lm) {
		return d.count()
	}

	var feet [len(footLandmarks)]pose.Landmark
	for i, idx := range footLandmarks {
		feet[i] = lm[idx]
	}
	x := d.smooth.Add(pose.MeanX(feet[:]...))
	d.x = x

	if !d.hasPrev {
		d.hasPrev = true
		d.prevX = x
		d.legStartX, d.legStartTime = x, ts
		d.extremeX, d.extremeTime = x, ts
		return d.count()
	}

	dx := x - d.prevX
	d.prevX = x
	vote := still
	switch {
	case dx > d.cfg.DeadBand:
		vote = forward
	case dx < -d.cfg.DeadBand:
		vote = backward
	}
	d.pushVote(vote)

	if (d.confirmed == forward && x > d.extremeX) || (d.confirmed == backward && x < d.extremeX) {
		d.extremeX, d.extremeTime = x, ts
	}

	dir := d.unanimous()
	if dir == still || dir == d.confirmed {
		return d.count()
	}

	if d.confirmed != still {
		d.closeLeg()
	}
	d.confirmed = dir
	d.extremeX, d.extremeTime = x, ts

	return d.count()
}

// closeLeg records the leg that ended at the last extreme position and starts
// the next one there.
func (d *ShuttleRun) closeLeg() {
	span := math.Abs(d.extremeX - d.legStartX)
	d.lastSpan = span
	if d.extremeTime-d.legStartTime >= d.cfg.MinLegDuration {
		var short FormIssue
		if span < d.cfg.MinLegSpan {
			short = IssueShortLeg
		}
		d.add(RepRecord{
			StartTime:  d.legStartTime,
			EndTime:    d.extremeTime,
			Extremum:   span * ReferenceFrameWidth * ShuttleMetersPerPixel,
			Unit:       UnitMeters,
			Correct:    short == "",
			FormIssues: issues(short),
		})
	}
	d.legStartX, d.legStartTime = d.extremeX, d.extremeTime
}

func (d *ShuttleRun) pushVote(v direction) {
	d.votes[d.votePos] = v
	d.votePos = (d.votePos + 1) % len(d.votes)
	d.voteCount = min(d.voteCount+1, len(d.votes))
}

func (d *ShuttleRun) unanimous() direction {
	if d.voteCount < len(d.votes) {
		return still
	}
	first := d.votes[0]
	for _, v := range d.votes[1:] {
		if v != first {
			return still
		}
	}
	return first
}

func (d *ShuttleRun) Reps() []RepRecord { return d.snapshot() }

func (d *ShuttleRun) Metrics() Metrics {
	var feedback []FormIssue
	if d.count() > 0 && d.lastSpan < d.cfg.MinLegSpan {
		feedback = append(feedback, IssueShortLeg)
	}
	var total float64
	for _, r := range d.reps {
		total += r.Extremum
	}
	return Metrics{
		Kind:  KindShuttleRun,
		State: d.confirmed.state(),
		Count: d.count(),
		Values: map[string]float64{
			"position":   d.x,
			"distance_m": total,
		},
		Feedback: feedback,
	}
}

func (d *ShuttleRun) Reset() {
	d.smooth.Reset()
	d.clear()
	clear(d.votes)
	d.votePos = 0
	d.voteCount = 0
	d.x = 0
	d.prevX = 0
	d.hasPrev = false
	d.confirmed = still
	d.legStartX, d.legStartTime = 0, 0
	d.extremeX, d.extremeTime = 0, 0
	d.lastSpan = 0
}
