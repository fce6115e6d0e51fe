package exercise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcount/internal/pose/posetest"
)

func pullUpTo(peak float64) clip {
	return concat(
		repeat(posetest.PullUp(170), 10),
		sweep(170, peak, 15, posetest.PullUp),
		repeat(posetest.PullUp(peak), 5),
		sweep(peak, 170, 15, posetest.PullUp),
		repeat(posetest.PullUp(170), 10),
	)
}

func TestPullUp(t *testing.T) {
	tests := []struct {
		name    string
		peak    float64
		correct bool
	}{
		{"chin over bar", 60, true},
		{"chin below bar", 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewPullUp(DefaultConfig().PullUp)
			feed(d, pullUpTo(tt.peak))

			reps := d.Reps()
			require.Len(t, reps, 1)
			assert.Equal(t, tt.correct, reps[0].Correct)
			if !tt.correct {
				assert.Equal(t, []FormIssue{IssueChinBelowBar}, reps[0].FormIssues)
			}
			assert.Equal(t, StateWaiting, d.Metrics().State)
		})
	}
}

func TestPullUp_HangOnly(t *testing.T) {
	d := NewPullUp(DefaultConfig().PullUp)
	feed(d, repeat(posetest.PullUp(175), 60))

	assert.Empty(t, d.Reps())
	assert.InDelta(t, 0, d.Metrics().Values["head_rise"], 1e-12)
}

func TestPullUp_Repeated(t *testing.T) {
	d := NewPullUp(DefaultConfig().PullUp)
	counts := feed(d, concat(pullUpTo(60), pullUpTo(60), pullUpTo(60)))

	assert.Equal(t, 3, counts[len(counts)-1])
}
