package exercise

import (
	"errors"
	"fmt"
)

// Calibration constants converting normalized landmark displacement to metres.
// They assume the 640x480 reference frame the thresholds were tuned on.
const (
	ReferenceFrameWidth   = 640.0
	ReferenceFrameHeight  = 480.0
	MetersPerPixel        = 0.005
	ShuttleMetersPerPixel = 0.015
)

// Config holds the tunable thresholds of every detector.
type Config struct {
	PushUp       PushUpConfig      `toml:"push_up" json:"push_up"`
	PullUp       PullUpConfig      `toml:"pull_up" json:"pull_up"`
	SitUp        SitUpConfig       `toml:"sit_up" json:"sit_up"`
	VerticalJump JumpConfig        `toml:"vertical_jump" json:"vertical_jump"`
	BroadJump    JumpConfig        `toml:"broad_jump" json:"broad_jump"`
	ShuttleRun   ShuttleConfig     `toml:"shuttle_run" json:"shuttle_run"`
	Squat        SquatConfig       `toml:"squat" json:"squat"`
	SitAndReach  SitAndReachConfig `toml:"sit_and_reach" json:"sit_and_reach"`
}

type PushUpConfig struct {
	SmoothingWindow int     `toml:"smoothing_window" json:"smoothing_window"`
	DownAngle       float64 `toml:"down_angle" json:"down_angle"`
	UpAngle         float64 `toml:"up_angle" json:"up_angle"`
	MinDipDuration  float64 `toml:"min_dip_duration" json:"min_dip_duration"`
	MinPlankAngle   float64 `toml:"min_plank_angle" json:"min_plank_angle"`
	MinDepth        float64 `toml:"min_depth" json:"min_depth"`
}

type PullUpConfig struct {
	SmoothingWindow int     `toml:"smoothing_window" json:"smoothing_window"`
	UpAngle         float64 `toml:"up_angle" json:"up_angle"`
	HangAngle       float64 `toml:"hang_angle" json:"hang_angle"`
	MinDuration     float64 `toml:"min_duration" json:"min_duration"`
	MinHeadRise     float64 `toml:"min_head_rise" json:"min_head_rise"`
}

type SitUpConfig struct {
	SmoothingWindow int     `toml:"smoothing_window" json:"smoothing_window"`
	FlipDelta       float64 `toml:"flip_delta" json:"flip_delta"`
	MinDuration     float64 `toml:"min_duration" json:"min_duration"`
	MinSwing        float64 `toml:"min_swing" json:"min_swing"`
}

// JumpConfig is shared by the vertical and broad jump detectors.
// Rise thresholds are fractions of frame height.
type JumpConfig struct {
	BaselineWindow int     `toml:"baseline_window" json:"baseline_window"`
	LiftoffRise    float64 `toml:"liftoff_rise" json:"liftoff_rise"`
	LandingRise    float64 `toml:"landing_rise" json:"landing_rise"`
	MinAirTime     float64 `toml:"min_air_time" json:"min_air_time"`
	MaxAnkleSpread float64 `toml:"max_ankle_spread" json:"max_ankle_spread"`
}

type ShuttleConfig struct {
	SmoothingWindow int     `toml:"smoothing_window" json:"smoothing_window"`
	VoteWindow      int     `toml:"vote_window" json:"vote_window"`
	DeadBand        float64 `toml:"dead_band" json:"dead_band"`
	MinLegDuration  float64 `toml:"min_leg_duration" json:"min_leg_duration"`
	MinLegSpan      float64 `toml:"min_leg_span" json:"min_leg_span"`
}

type SquatConfig struct {
	SmoothingWindow int     `toml:"smoothing_window" json:"smoothing_window"`
	DeepAngle       float64 `toml:"deep_angle" json:"deep_angle"`
	UprightAngle    float64 `toml:"upright_angle" json:"upright_angle"`
	MinVisibility   float64 `toml:"min_visibility" json:"min_visibility"`
	MinDescent      float64 `toml:"min_descent" json:"min_descent"`
}

type SitAndReachConfig struct {
	SmoothingWindow int     `toml:"smoothing_window" json:"smoothing_window"`
	MinKneeAngle    float64 `toml:"min_knee_angle" json:"min_knee_angle"`
}

// DefaultConfig returns the thresholds the detectors were tuned with.
func DefaultConfig() Config {
	jump := JumpConfig{
		BaselineWindow: 10,
		LiftoffRise:    0.02,
		LandingRise:    0.005,
		MinAirTime:     0.1,
		MaxAnkleSpread: 0.05,
	}
	return Config{
		PushUp: PushUpConfig{
			SmoothingWindow: 3,
			DownAngle:       75,
			UpAngle:         110,
			MinDipDuration:  0.2,
			MinPlankAngle:   165,
			MinDepth:        0.05,
		},
		PullUp: PullUpConfig{
			SmoothingWindow: 3,
			UpAngle:         110,
			HangAngle:       160,
			MinDuration:     0.1,
			MinHeadRise:     0.08,
		},
		SitUp: SitUpConfig{
			SmoothingWindow: 3,
			FlipDelta:       15,
			MinDuration:     0.3,
			MinSwing:        25,
		},
		VerticalJump: jump,
		BroadJump:    jump,
		ShuttleRun: ShuttleConfig{
			SmoothingWindow: 3,
			VoteWindow:      5,
			DeadBand:        0.002,
			MinLegDuration:  0.2,
			MinLegSpan:      0.2,
		},
		Squat: SquatConfig{
			SmoothingWindow: 3,
			DeepAngle:       105,
			UprightAngle:    150,
			MinVisibility:   0.5,
			MinDescent:      0.2,
		},
		SitAndReach: SitAndReachConfig{
			SmoothingWindow: 3,
			MinKneeAngle:    160,
		},
	}
}

// Validate reports threshold combinations that would leave a state machine
// without hysteresis.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.PushUp.DownAngle < c.PushUp.UpAngle,
		"push_up: down_angle %.1f must be below up_angle %.1f", c.PushUp.DownAngle, c.PushUp.UpAngle)
	check(c.PullUp.UpAngle < c.PullUp.HangAngle,
		"pull_up: up_angle %.1f must be below hang_angle %.1f", c.PullUp.UpAngle, c.PullUp.HangAngle)
	check(c.SitUp.FlipDelta > 0, "sit_up: flip_delta must be positive")
	for _, j := range []struct {
		name string
		cfg  JumpConfig
	}{{"vertical_jump", c.VerticalJump}, {"broad_jump", c.BroadJump}} {
		check(j.cfg.LandingRise < j.cfg.LiftoffRise,
			"%s: landing_rise %.3f must be below liftoff_rise %.3f", j.name, j.cfg.LandingRise, j.cfg.LiftoffRise)
		check(j.cfg.BaselineWindow > 0, "%s: baseline_window must be positive", j.name)
	}
	check(c.ShuttleRun.VoteWindow > 0, "shuttle_run: vote_window must be positive")
	check(c.ShuttleRun.DeadBand >= 0, "shuttle_run: dead_band must not be negative")
	check(c.Squat.DeepAngle < c.Squat.UprightAngle,
		"squat: deep_angle %.1f must be below upright_angle %.1f", c.Squat.DeepAngle, c.Squat.UprightAngle)

	return errors.Join(errs...)
}
