package exercise

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/pose/posetest"
)

func TestPushUp_SingleCorrectRep(t *testing.T) {
	d := NewPushUp(DefaultConfig().PushUp)
	counts := feed(d, pushUpScenario())

	assert.Equal(t, 1, counts[len(counts)-1])
	reps := d.Reps()
	require.Len(t, reps, 1)

	r := reps[0]
	assert.True(t, r.Correct)
	assert.Empty(t, r.FormIssues)
	assert.LessOrEqual(t, r.Extremum, 75.0)
	assert.GreaterOrEqual(t, r.Duration, 0.2)
	assert.Equal(t, UnitDegrees, r.Unit)
	assert.Equal(t, StateUp, d.Metrics().State)
}

func TestPushUp_ShortDipDiscarded(t *testing.T) {
	d := NewPushUp(DefaultConfig().PushUp)
	frames := concat(
		repeat(plank(170), 10),
		repeat(plank(70), 3),
		repeat(plank(170), 10),
	)

	counts := feed(d, frames)

	assert.Equal(t, 0, counts[len(counts)-1])
	assert.Empty(t, d.Reps())
}

func TestPushUp_HipSag(t *testing.T) {
	d := NewPushUp(DefaultConfig().PushUp)
	sag := func(elbow float64) []pose.Landmark { return posetest.PushUp(elbow, 150) }
	frames := concat(sweep(170, 70, 30, sag), sweep(70, 170, 31, sag)[1:])

	feed(d, frames)

	reps := d.Reps()
	require.Len(t, reps, 1)
	assert.False(t, reps[0].Correct)
	assert.Contains(t, reps[0].FormIssues, IssueHipSag)
}

func TestPushUp_ShallowDepth(t *testing.T) {
	// A tight depth requirement turns an otherwise clean rep into a shallow one.
	cfg := DefaultConfig().PushUp
	cfg.MinDepth = 0.9
	d := NewPushUp(cfg)

	feed(d, pushUpScenario())

	reps := d.Reps()
	require.Len(t, reps, 1)
	assert.Equal(t, []FormIssue{IssueShallowDepth}, reps[0].FormIssues)
}

func TestPushUp_Metrics(t *testing.T) {
	d := NewPushUp(DefaultConfig().PushUp)
	feed(d, sweep(170, 70, 30, plank))

	m := d.Metrics()
	assert.Equal(t, KindPushUp, m.Kind)
	assert.Equal(t, StateDown, m.State)
	assert.Equal(t, 0, m.Count)
	assert.InDelta(t, 175, m.Values["plank_angle"], 0.5)
	assert.InDelta(t, 0.099, m.Values["depth"], 0.005)
}

// bentArm keeps shoulders and wrists planted and moves only the elbows so
// that the shoulder-elbow-wrist angle equals elbow.
func bentArm(elbow float64) []pose.Landmark {
	lm := posetest.PushUp(170, 180)
	out := 0.15 / math.Tan(elbow*math.Pi/360)
	for _, side := range [][5]int{
		{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, pose.LeftHip, pose.LeftAnkle},
		{pose.RightShoulder, pose.RightElbow, pose.RightWrist, pose.RightHip, pose.RightAnkle},
	} {
		lm[side[0]] = pose.Landmark{X: 0.30, Y: 0.50, Visibility: 0.99}
		lm[side[1]] = pose.Landmark{X: 0.30 + out, Y: 0.65, Visibility: 0.99}
		lm[side[2]] = pose.Landmark{X: 0.30, Y: 0.80, Visibility: 0.99}
		lm[side[3]] = pose.Landmark{X: 0.55, Y: 0.50, Visibility: 0.99}
		lm[side[4]] = pose.Landmark{X: 0.80, Y: 0.51, Visibility: 0.99}
	}
	return lm
}

func TestPushUp_SteadyDepthIsCorrect(t *testing.T) {
	d := NewPushUp(DefaultConfig().PushUp)
	frames := concat(sweep(170, 70, 30, bentArm), sweep(70, 170, 31, bentArm)[1:])

	feed(d, frames)

	reps := d.Reps()
	require.Len(t, reps, 1)
	assert.True(t, reps[0].Correct)
	assert.Empty(t, reps[0].FormIssues)
	assert.InDelta(t, 0.3, d.Metrics().Values["depth"], 1e-9)
}
