package exercise

import (
	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/smoothing"
)

// SitAndReach tracks the furthest forward reach of the wrists past the toes.
// It keeps a single best record that is overwritten by every new maximum, so
// the count is 0 before the first valid frame and 1 afterwards.
type SitAndReach struct {
	cfg   SitAndReachConfig
	reach *smoothing.Buffer

	best      *RepRecord
	forward   float64
	startTime float64
	current   float64
	knee      float64
}

// NewSitAndReach creates a sit-and-reach detector.
func NewSitAndReach(cfg SitAndReachConfig) *SitAndReach {
	d := &SitAndReach{
		cfg:   cfg,
		reach: smoothing.New(cfg.SmoothingWindow),
	}
	d.Reset()
	return d
}

func (d *SitAndReach) Kind() Kind { return KindSitAndReach }

func (d *SitAndReach) Process(lm []pose.Landmark, ts float64) int {
	if !pose.Valid(lm) {
		return d.count()
	}

	hip := pose.Midpoint(lm[pose.LeftHip], lm[pose.RightHip])
	foot := pose.Midpoint(lm[pose.LeftAnkle], lm[pose.RightAnkle])
	toes := pose.Midpoint(lm[pose.LeftFootIndex], lm[pose.RightFootIndex])
	wrist := pose.Midpoint(lm[pose.LeftWrist], lm[pose.RightWrist])

	if d.forward == 0 {
		d.forward = 1
		if foot.X < hip.X {
			d.forward = -1
		}
		d.startTime = ts
	}

	reach := d.reach.Add((wrist.X - toes.X) * d.forward)
	d.current = reach * ReferenceFrameWidth * MetersPerPixel * 100
	d.knee = (pose.AngleAt(lm[pose.LeftHip], lm[pose.LeftKnee], lm[pose.LeftAnkle]) +
		pose.AngleAt(lm[pose.RightHip], lm[pose.RightKnee], lm[pose.RightAnkle])) / 2

	if d.best == nil || d.current > d.best.Extremum {
		var bent FormIssue
		if d.knee < d.cfg.MinKneeAngle {
			bent = IssueBentKnees
		}
		d.best = &RepRecord{
			Index:      1,
			StartTime:  d.startTime,
			EndTime:    ts,
			Duration:   ts - d.startTime,
			Extremum:   d.current,
			Unit:       UnitCentimeters,
			Correct:    bent == "",
			FormIssues: issues(bent),
		}
	}

	return d.count()
}

func (d *SitAndReach) count() int {
	if d.best == nil {
		return 0
	}
	return 1
}

func (d *SitAndReach) Reps() []RepRecord {
	if d.best == nil {
		return nil
	}
	r := *d.best
	r.FormIssues = append([]FormIssue(nil), d.best.FormIssues...)
	return []RepRecord{r}
}

func (d *SitAndReach) Metrics() Metrics {
	var feedback []FormIssue
	if d.best != nil && d.knee < d.cfg.MinKneeAngle {
		feedback = append(feedback, IssueBentKnees)
	}
	var best float64
	if d.best != nil {
		best = d.best.Extremum
	}
	return Metrics{
		Kind:  KindSitAndReach,
		State: StateReaching,
		Count: d.count(),
		Values: map[string]float64{
			"reach_cm":   d.current,
			"best_cm":    best,
			"knee_angle": d.knee,
		},
		Feedback: feedback,
	}
}

func (d *SitAndReach) Reset() {
	d.reach.Reset()
	d.best = nil
	d.forward = 0
	d.startTime = 0
	d.current = 0
	d.knee = 0
}
