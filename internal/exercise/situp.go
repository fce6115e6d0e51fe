package exercise

import (
	"math"

	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/smoothing"
)

// SitUp counts sit-ups using the elbow angle as a proxy for torso curl.
//
// The detector has no fixed angle thresholds. It follows the smoothed angle and
// flips state whenever the signal moves FlipDelta degrees away from the last
// extremum. The direction of the first such move defines the curl direction,
// so the count is independent of camera side and arm placement. A repetition
// completes when the curl reverses.
type SitUp struct {
	cfg   SitUpConfig
	angle *smoothing.Buffer
	history

	state   State
	current float64
	started bool

	// curl is +1 when curling raises the angle and -1 when it lowers it.
	curl float64

	lo, hi         float64 // idle range before the curl direction is known
	loTime, hiTime float64

	extremum     float64
	extremumTime float64
	cycleStart   float64
	cycleAngle   float64
	lastSwing    float64
}

// NewSitUp creates a sit-up detector.
func NewSitUp(cfg SitUpConfig) *SitUp {
	d := &SitUp{
		cfg:   cfg,
		angle: smoothing.New(cfg.SmoothingWindow),
	}
	d.Reset()
	return d
}

func (d *SitUp) Kind() Kind { return KindSitUp }

func (d *SitUp) Process(lm []pose.Landmark, ts float64) int {
	if !pose.Valid(lm) {
		return d.count()
	}

	left := pose.AngleAt(lm[pose.LeftShoulder], lm[pose.LeftElbow], lm[pose.LeftWrist])
	right := pose.AngleAt(lm[pose.RightShoulder], lm[pose.RightElbow], lm[pose.RightWrist])
	v := d.angle.Add((left + right) / 2)
	d.current = v

	if !d.started {
		d.started = true
		d.lo, d.hi = v, v
		d.loTime, d.hiTime = ts, ts
		return d.count()
	}

	switch d.state {
	case StateIdle:
		if v < d.lo {
			d.lo, d.loTime = v, ts
		}
		if v > d.hi {
			d.hi, d.hiTime = v, ts
		}
		switch {
		case v-d.lo >= d.cfg.FlipDelta:
			d.curl = 1
			d.beginCurl(d.lo, d.loTime, v, ts)
		case d.hi-v >= d.cfg.FlipDelta:
			d.curl = -1
			d.beginCurl(d.hi, d.hiTime, v, ts)
		}
	case StateUp:
		if (v-d.extremum)*d.curl > 0 {
			d.extremum, d.extremumTime = v, ts
		}
		if (d.extremum-v)*d.curl >= d.cfg.FlipDelta {
			d.state = StateDown
			swing := math.Abs(d.extremum - d.cycleAngle)
			d.lastSwing = swing
			if ts-d.cycleStart >= d.cfg.MinDuration {
				var partial FormIssue
				if swing < d.cfg.MinSwing {
					partial = IssuePartialRange
				}
				d.add(RepRecord{
					StartTime:  d.cycleStart,
					EndTime:    ts,
					Extremum:   swing,
					Unit:       UnitDegrees,
					Correct:    partial == "",
					FormIssues: issues(partial),
				})
			}
			d.extremum, d.extremumTime = v, ts
		}
	case StateDown:
		if (d.extremum-v)*d.curl > 0 {
			d.extremum, d.extremumTime = v, ts
		}
		if (v-d.extremum)*d.curl >= d.cfg.FlipDelta {
			d.beginCurl(d.extremum, d.extremumTime, v, ts)
		}
	}

	return d.count()
}

// beginCurl starts a cycle at the rest extremum (angle, at) and begins tracking
// the curl peak from the current sample.
func (d *SitUp) beginCurl(angle, at, v, ts float64) {
	d.state = StateUp
	d.cycleAngle = angle
	d.cycleStart = at
	d.extremum, d.extremumTime = v, ts
}

func (d *SitUp) Reps() []RepRecord { return d.snapshot() }

func (d *SitUp) Metrics() Metrics {
	var feedback []FormIssue
	if d.count() > 0 && d.lastSwing < d.cfg.MinSwing {
		feedback = append(feedback, IssuePartialRange)
	}
	return Metrics{
		Kind:  KindSitUp,
		State: d.state,
		Count: d.count(),
		Values: map[string]float64{
			"angle": d.current,
			"swing": d.lastSwing,
		},
		Feedback: feedback,
	}
}

func (d *SitUp) Reset() {
	d.angle.Reset()
	d.clear()
	d.state = StateIdle
	d.current = 0
	d.started = false
	d.curl = 0
	d.lo, d.hi = 0, 0
	d.loTime, d.hiTime = 0, 0
	d.extremum, d.extremumTime = 0, 0
	d.cycleStart, d.cycleAngle = 0, 0
	d.lastSwing = 0
}
