package capture

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/detector"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/pose/posetest"
)

func blankFrames(n int) ([]*gocv.Mat, func()) {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	return frames, func() {
		for _, f := range frames {
			f.Close()
		}
	}
}

func TestPoseSource_SkipsEmptyFrames(t *testing.T) {
	frames, cleanup := blankFrames(4)
	defer cleanup()

	cam := NewMockCamera(frames, false)
	cam.Open()
	defer cam.Close()

	det := detector.NewMockDetector()
	det.SetSequence([][]pose.Landmark{nil, posetest.Standing(), nil, posetest.WithArms(90)})

	m := metrics.NewTestManager()
	src := NewPoseSource(cam, det, m)
	ctx := context.Background()

	f, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if f.Timestamp != 1.0/DefaultFPS {
		t.Errorf("expected the second frame's timestamp, got %f", f.Timestamp)
	}

	f, err = src.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if f.Timestamp != 3.0/DefaultFPS {
		t.Errorf("expected the fourth frame's timestamp, got %f", f.Timestamp)
	}

	if _, err := src.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
	if src.Skipped() != 2 {
		t.Errorf("Skipped() = %d, want 2", src.Skipped())
	}
	if got := testutil.ToFloat64(m.CounterFramesNoPerson); got != 2 {
		t.Errorf("no-person counter = %f, want 2", got)
	}
}

func TestPoseSource_DetectorError(t *testing.T) {
	frames, cleanup := blankFrames(1)
	defer cleanup()

	cam := NewMockCamera(frames, false)
	cam.Open()
	defer cam.Close()

	det := detector.NewMockDetector()
	want := errors.New("service crashed")
	det.SetError(want)

	_, err := NewPoseSource(cam, det, nil).Next(context.Background())
	if !errors.Is(err, want) {
		t.Errorf("expected wrapped detector error, got %v", err)
	}
}

func TestPoseSource_Cancelled(t *testing.T) {
	frames, cleanup := blankFrames(1)
	defer cleanup()

	cam := NewMockCamera(frames, true)
	cam.Open()
	defer cam.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	det := detector.NewMockDetector()
	if _, err := NewPoseSource(cam, det, nil).Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if det.Calls() != 0 {
		t.Errorf("detector should not run after cancellation, got %d calls", det.Calls())
	}
}
