package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/pose/posetest"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu        sync.Mutex
	landmarks []pose.Landmark
	sequence  [][]pose.Landmark
	next      int
	err       error
	calls     int
}

// NewMockDetector creates a MockDetector that reports a standing person.
func NewMockDetector() *MockDetector {
	return &MockDetector{landmarks: posetest.Standing()}
}

// SetLandmarks sets the landmarks returned by every Detect call.
// nil simulates an empty frame.
func (m *MockDetector) SetLandmarks(lm []pose.Landmark) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.landmarks = lm
	m.sequence = nil
}

// SetSequence makes Detect return the given frames in order. Once the
// sequence is exhausted the last frame is repeated.
func (m *MockDetector) SetSequence(frames [][]pose.Landmark) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = frames
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured landmarks or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]pose.Landmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		lm := m.sequence[min(m.next, len(m.sequence)-1)]
		m.next++
		return lm, nil
	}
	return m.landmarks, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
