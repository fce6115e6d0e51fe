package capture

import (
	"fmt"
	"io"
	"sync"

	"gocv.io/x/gocv"
)

// videoFile reads frames from a recorded video. Timestamps follow the
// container position so analysis speed does not affect rep durations.
type videoFile struct {
	path    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
	frames  int
	last    float64
}

// NewVideoFile creates a Source that decodes the video at path.
// ReadFrame returns io.EOF after the last frame.
func NewVideoFile(path string) Source {
	return &videoFile{path: path, fps: DefaultFPS}
}

func (v *videoFile) Open() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.running {
		return nil
	}

	capture, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", v.path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open video %s: unsupported or missing file", v.path)
	}

	if fps := capture.Get(gocv.VideoCaptureFPS); fps >= 1 {
		v.fps = int(fps + 0.5)
	}

	v.capture = capture
	v.running = true
	v.frames = 0
	v.last = 0

	return nil
}

func (v *videoFile) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		v.running = false
		return nil
	}

	err := v.capture.Close()
	v.capture = nil
	v.running = false

	return err
}

func (v *videoFile) ReadFrame() (*gocv.Mat, float64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		return nil, 0, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, 0, io.EOF
	}

	ts := v.capture.Get(gocv.VideoCapturePosMsec) / 1000
	if ts <= 0 && v.frames > 0 {
		ts = float64(v.frames) / float64(v.fps)
	}
	ts = max(ts, v.last)
	v.last = ts
	v.frames++

	return &mat, ts, nil
}

// SetFPS is ignored; the file's own frame rate applies.
func (v *videoFile) SetFPS(int) {}

func (v *videoFile) FPS() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fps
}

func (v *videoFile) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.running
}
