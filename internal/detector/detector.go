// Package detector turns video frames into 33-point body landmarks.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/pose"
)

// Detector defines the interface for pose estimation implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the landmarks of the most
	// prominent person. Returns nil if nobody is detected.
	Detect(frame *gocv.Mat) ([]pose.Landmark, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose estimation.
type Config struct {
	// MinDetectionConf is the minimum person detection confidence (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum landmark tracking confidence (0.0-1.0).
	MinTrackingConf float64

	// ModelComplexity selects the pose model: 0 lite, 1 full, 2 heavy.
	ModelComplexity int

	// ScriptPath overrides the location of pose_service.py.
	ScriptPath string

	// IdleTimeout stops the subprocess after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinDetectionConf: 0.5,
		MinTrackingConf:  0.5,
		ModelComplexity:  1,
		IdleTimeout:      30 * time.Second,
	}
}
