package exercise

import (
	"math"

	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/smoothing"
)

// airborne tracks grounded/airborne transitions of a body point's Y coordinate
// against a running mean of its grounded position.
type airborne struct {
	cfg      JumpConfig
	baseline *smoothing.Buffer

	state    State
	rise     float64
	base     float64
	peakRise float64
	liftoffT float64
	liftoffX float64
}

// flight describes one completed airborne phase.
type flight struct {
	start, end   float64
	peakRise     float64
	startX, endX float64
}

func newAirborne(cfg JumpConfig) *airborne {
	a := &airborne{cfg: cfg, baseline: smoothing.New(cfg.BaselineWindow)}
	a.reset()
	return a
}

// update feeds one sample and reports a flight when the point lands.
func (a *airborne) update(y, x, ts float64) (flight, bool) {
	switch a.state {
	case StateGrounded:
		if a.baseline.Len() == 0 {
			a.baseline.Add(y)
			a.base = y
			a.rise = 0
			return flight{}, false
		}
		a.base = a.baseline.Mean()
		a.rise = a.base - y
		if a.rise > a.cfg.LiftoffRise {
			a.state = StateAirborne
			a.liftoffT = ts
			a.liftoffX = x
			a.peakRise = a.rise
			return flight{}, false
		}
		a.baseline.Add(y)
	case StateAirborne:
		a.rise = a.base - y
		a.peakRise = max(a.peakRise, a.rise)
		if a.rise < a.cfg.LandingRise {
			f := flight{
				start:    a.liftoffT,
				end:      ts,
				peakRise: a.peakRise,
				startX:   a.liftoffX,
				endX:     x,
			}
			a.state = StateGrounded
			a.peakRise = 0
			a.baseline.Add(y)
			return f, f.end-f.start >= a.cfg.MinAirTime
		}
	}
	return flight{}, false
}

func (a *airborne) reset() {
	a.baseline.Reset()
	a.state = StateGrounded
	a.rise = 0
	a.base = 0
	a.peakRise = 0
	a.liftoffT = 0
	a.liftoffX = 0
}

func landingIssue(lm []pose.Landmark, maxSpread float64) FormIssue {
	if math.Abs(lm[pose.LeftAnkle].Y-lm[pose.RightAnkle].Y) > maxSpread {
		return IssueUnevenLanding
	}
	return ""
}

// VerticalJump measures jump height from the rise of the mid-hip point.
type VerticalJump struct {
	cfg JumpConfig
	air *airborne
	history
	lastIssue FormIssue
}

// NewVerticalJump creates a vertical jump detector.
func NewVerticalJump(cfg JumpConfig) *VerticalJump {
	d := &VerticalJump{cfg: cfg, air: newAirborne(cfg)}
	d.Reset()
	return d
}

func (d *VerticalJump) Kind() Kind { return KindVerticalJump }

func (d *VerticalJump) Process(lm []pose.Landmark, ts float64) int {
	if !pose.Valid(lm) {
		return d.count()
	}

	hip := pose.Midpoint(lm[pose.LeftHip], lm[pose.RightHip])
	f, landed := d.air.update(hip.Y, hip.X, ts)
	if landed {
		uneven := landingIssue(lm, d.cfg.MaxAnkleSpread)
		d.lastIssue = uneven
		d.add(RepRecord{
			StartTime:  f.start,
			EndTime:    f.end,
			Extremum:   f.peakRise * ReferenceFrameHeight * MetersPerPixel,
			Unit:       UnitMeters,
			Correct:    uneven == "",
			FormIssues: issues(uneven),
		})
	}

	return d.count()
}

func (d *VerticalJump) Reps() []RepRecord { return d.snapshot() }

func (d *VerticalJump) Metrics() Metrics {
	return Metrics{
		Kind:  KindVerticalJump,
		State: d.air.state,
		Count: d.count(),
		Values: map[string]float64{
			"rise":     d.air.rise,
			"height_m": max(d.air.rise, 0) * ReferenceFrameHeight * MetersPerPixel,
		},
		Feedback: issues(d.lastIssue),
	}
}

func (d *VerticalJump) Reset() {
	d.air.reset()
	d.clear()
	d.lastIssue = ""
}

// BroadJump measures horizontal jump distance between liftoff and landing of
// the mid-ankle point.
type BroadJump struct {
	cfg JumpConfig
	air *airborne
	history
	lastIssue FormIssue
}

// NewBroadJump creates a broad jump detector.
func NewBroadJump(cfg JumpConfig) *BroadJump {
	d := &BroadJump{cfg: cfg, air: newAirborne(cfg)}
	d.Reset()
	return d
}

func (d *BroadJump) Kind() Kind { return KindBroadJump }

func (d *BroadJump) Process(lm []pose.Landmark, ts float64) int {
	if !pose.Valid(lm) {
		return d.count()
	}

	ankle := pose.Midpoint(lm[pose.LeftAnkle], lm[pose.RightAnkle])
	f, landed := d.air.update(ankle.Y, ankle.X, ts)
	if landed {
		uneven := landingIssue(lm, d.cfg.MaxAnkleSpread)
		d.lastIssue = uneven
		d.add(RepRecord{
			StartTime:  f.start,
			EndTime:    f.end,
			Extremum:   math.Abs(f.endX-f.startX) * ReferenceFrameWidth * MetersPerPixel,
			Unit:       UnitMeters,
			Correct:    uneven == "",
			FormIssues: issues(uneven),
		})
	}

	return d.count()
}

func (d *BroadJump) Reps() []RepRecord { return d.snapshot() }

func (d *BroadJump) Metrics() Metrics {
	var last float64
	if n := d.count(); n > 0 {
		last = d.reps[n-1].Extremum
	}
	return Metrics{
		Kind:  KindBroadJump,
		State: d.air.state,
		Count: d.count(),
		Values: map[string]float64{
			"rise":       d.air.rise,
			"distance_m": last,
		},
		Feedback: issues(d.lastIssue),
	}
}

func (d *BroadJump) Reset() {
	d.air.reset()
	d.clear()
	d.lastIssue = ""
}
