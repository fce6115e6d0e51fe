package exercise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/pose/posetest"
)

func TestStance_Code(t *testing.T) {
	tests := []struct {
		stance   Stance
		code     int
		class    StanceClass
		feedback FormIssue
	}{
		{Stance{LegMissing, LegUpright}, 0, StanceMissing, IssueLandmarksMissing},
		{Stance{LegUpright, LegMissing}, 0, StanceMissing, IssueLandmarksMissing},
		{Stance{LegDeep, LegDeep}, 1, StanceDeep, ""},
		{Stance{LegTransition, LegDeep}, 2, StanceDeepening, IssueGoDeeperLeft},
		{Stance{LegDeep, LegTransition}, 2, StanceDeepening, IssueGoDeeperRight},
		{Stance{LegDeep, LegUpright}, 3, StanceUneven, IssueUnevenSquat},
		{Stance{LegUpright, LegDeep}, 3, StanceUneven, IssueUnevenSquat},
		{Stance{LegTransition, LegTransition}, 4, StanceMoving, ""},
		{Stance{LegTransition, LegUpright}, 6, StanceExtending, IssueExtendLeftLeg},
		{Stance{LegUpright, LegTransition}, 6, StanceExtending, IssueExtendRightLeg},
		{Stance{LegUpright, LegUpright}, 9, StanceUpright, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.stance.Code(), "%+v", tt.stance)
		assert.Equal(t, tt.class, tt.stance.Class(), "%+v", tt.stance)
		assert.Equal(t, tt.feedback, tt.stance.Feedback(), "%+v", tt.stance)
	}
}

func TestSquat_SingleRep(t *testing.T) {
	d := NewSquat(DefaultConfig().Squat)
	counts := feed(d, scenarios()[KindSquat])

	assert.Equal(t, 1, counts[len(counts)-1])
	reps := d.Reps()
	require.Len(t, reps, 1)
	assert.True(t, reps[0].Correct)
	assert.LessOrEqual(t, reps[0].Extremum, 105.0)
	assert.GreaterOrEqual(t, reps[0].Duration, 0.2)
	assert.Equal(t, StateStanding, d.Metrics().State)
}

func TestSquat_HoldingBottomCountsOnce(t *testing.T) {
	d := NewSquat(DefaultConfig().Squat)
	counts := feed(d, concat(
		repeat(bothLegs(170), 5),
		sweep(170, 90, 20, bothLegs),
		repeat(bothLegs(90), 60),
	))

	assert.Equal(t, 1, counts[len(counts)-1])
	assert.Equal(t, StateSquatting, d.Metrics().State)
}

func TestSquat_EveryEntryIntoDeepCounts(t *testing.T) {
	// Rising only part way and sinking again is a second entry into the deep stance.
	d := NewSquat(DefaultConfig().Squat)
	counts := feed(d, concat(
		repeat(bothLegs(170), 5),
		sweep(170, 90, 20, bothLegs),
		sweep(90, 130, 10, bothLegs),
		sweep(130, 90, 10, bothLegs),
		sweep(90, 170, 20, bothLegs),
	))

	assert.Equal(t, 2, counts[len(counts)-1])
}

func TestSquat_StartsDeep(t *testing.T) {
	d := NewSquat(DefaultConfig().Squat)
	counts := feed(d, concat(
		repeat(bothLegs(90), 5),
		sweep(90, 170, 20, bothLegs),
		repeat(bothLegs(170), 5),
		sweep(170, 90, 20, bothLegs),
	))

	assert.Equal(t, 1, counts[0], "the first deep frame is an entry")
	assert.Equal(t, 2, counts[len(counts)-1])
}

func TestSquat_FlickerOutOfDeepIgnored(t *testing.T) {
	d := NewSquat(DefaultConfig().Squat)
	counts := feed(d, concat(
		repeat(bothLegs(170), 5),
		sweep(170, 90, 20, bothLegs),
		repeat(bothLegs(90), 3),
		repeat(bothLegs(150), 1),
		repeat(bothLegs(60), 2),
		repeat(bothLegs(90), 5),
	))

	assert.Equal(t, 1, counts[len(counts)-1])
}

func TestSquat_OneLegOnly(t *testing.T) {
	d := NewSquat(DefaultConfig().Squat)
	leftOnly := func(knee float64) []pose.Landmark { return posetest.Squat(knee, 170) }

	feed(d, concat(
		repeat(bothLegs(170), 5),
		sweep(170, 90, 20, leftOnly),
		repeat(leftOnly(90), 5),
	))

	assert.Empty(t, d.Reps())
	assert.Equal(t, []FormIssue{IssueUnevenSquat}, d.Metrics().Feedback)
}

func TestSquat_UnevenDescentMarksRep(t *testing.T) {
	d := NewSquat(DefaultConfig().Squat)
	leftFirst := func(knee float64) []pose.Landmark { return posetest.Squat(knee, 170) }
	rightFollows := func(knee float64) []pose.Landmark { return posetest.Squat(90, knee) }

	feed(d, concat(
		repeat(bothLegs(170), 5),
		sweep(170, 90, 15, leftFirst),
		sweep(170, 90, 15, rightFollows),
		repeat(bothLegs(90), 3),
	))

	reps := d.Reps()
	require.Len(t, reps, 1)
	assert.False(t, reps[0].Correct)
	assert.Equal(t, []FormIssue{IssueUnevenSquat}, reps[0].FormIssues)
}

func TestSquat_LowVisibility(t *testing.T) {
	d := NewSquat(DefaultConfig().Squat)
	hidden := func(knee float64) []pose.Landmark {
		lm := bothLegs(knee)
		lm[pose.LeftKnee].Visibility = 0.2
		return lm
	}

	feed(d, concat(
		repeat(hidden(170), 5),
		sweep(170, 90, 20, hidden),
		sweep(90, 170, 20, hidden),
	))

	assert.Empty(t, d.Reps())
	assert.Equal(t, []FormIssue{IssueLandmarksMissing}, d.Metrics().Feedback)
}
