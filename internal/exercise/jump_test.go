package exercise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/pose/posetest"
)

func TestVerticalJump_Height(t *testing.T) {
	d := NewVerticalJump(DefaultConfig().VerticalJump)
	counts := feed(d, scenarios()[KindVerticalJump])

	assert.Equal(t, 1, counts[len(counts)-1])
	reps := d.Reps()
	require.Len(t, reps, 1)

	r := reps[0]
	assert.Equal(t, UnitMeters, r.Unit)
	assert.InDelta(t, 0.1*ReferenceFrameHeight*MetersPerPixel, r.Extremum, 1e-9)
	assert.InDelta(t, 13/fps, r.Duration, 1e-9)
	assert.True(t, r.Correct)
	assert.Equal(t, StateGrounded, d.Metrics().State)
}

func TestVerticalJump_SmallBounceIgnored(t *testing.T) {
	d := NewVerticalJump(DefaultConfig().VerticalJump)
	feed(d, concat(
		repeat(posetest.Standing(), 30),
		jumpArc(0.015, 0, 15),
		repeat(posetest.Standing(), 20),
	))

	assert.Empty(t, d.Reps())
}

func TestVerticalJump_ShortAirTimeDiscarded(t *testing.T) {
	d := NewVerticalJump(DefaultConfig().VerticalJump)
	feed(d, concat(
		repeat(posetest.Standing(), 30),
		jumpArc(0.1, 0, 3),
		repeat(posetest.Standing(), 20),
	))

	assert.Empty(t, d.Reps())
	assert.Equal(t, StateGrounded, d.Metrics().State)
}

func TestVerticalJump_UnevenLanding(t *testing.T) {
	arc := jumpArc(0.1, 0, 15)
	landing := append([]pose.Landmark(nil), arc[len(arc)-1]...)
	landing[pose.LeftAnkle].Y += 0.08
	arc[len(arc)-1] = landing

	d := NewVerticalJump(DefaultConfig().VerticalJump)
	feed(d, concat(repeat(posetest.Standing(), 30), arc, repeat(posetest.Standing(), 20)))

	reps := d.Reps()
	require.Len(t, reps, 1)
	assert.False(t, reps[0].Correct)
	assert.Equal(t, []FormIssue{IssueUnevenLanding}, reps[0].FormIssues)
}

func TestVerticalJump_Consecutive(t *testing.T) {
	d := NewVerticalJump(DefaultConfig().VerticalJump)
	counts := feed(d, concat(
		repeat(posetest.Standing(), 30),
		jumpArc(0.1, 0, 15),
		repeat(posetest.Standing(), 15),
		jumpArc(0.06, 0, 12),
		repeat(posetest.Standing(), 15),
	))

	assert.Equal(t, 2, counts[len(counts)-1])
	reps := d.Reps()
	require.Len(t, reps, 2)
	assert.Greater(t, reps[0].Extremum, reps[1].Extremum)
}

func TestBroadJump_Distance(t *testing.T) {
	d := NewBroadJump(DefaultConfig().BroadJump)
	feed(d, scenarios()[KindBroadJump])

	reps := d.Reps()
	require.Len(t, reps, 1)

	// Liftoff is detected one frame into the 15-frame arc, landing on its last frame.
	want := 0.3 * 13 / 14 * ReferenceFrameWidth * MetersPerPixel
	assert.InDelta(t, want, reps[0].Extremum, 1e-9)
	assert.Equal(t, UnitMeters, reps[0].Unit)
	assert.InDelta(t, want, d.Metrics().Values["distance_m"], 1e-9)
}

func TestBroadJump_InPlaceHasNoDistance(t *testing.T) {
	d := NewBroadJump(DefaultConfig().BroadJump)
	feed(d, scenarios()[KindVerticalJump])

	reps := d.Reps()
	require.Len(t, reps, 1)
	assert.InDelta(t, 0, reps[0].Extremum, 1e-9)
}
