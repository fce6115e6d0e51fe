package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/pose/posetest"
	"github.com/ayusman/repcount/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// pushUpFrames returns n lowering-and-pressing cycles at 30 fps.
func pushUpFrames(n int) []pose.Frame {
	var elbows []float64
	for range n {
		elbows = append(elbows, posetest.Ramp(170, 70, 30)...)
		elbows = append(elbows, posetest.Ramp(70, 170, 31)[1:]...)
	}

	frames := make([]pose.Frame, len(elbows))
	for i, e := range elbows {
		frames[i] = pose.Frame{Timestamp: float64(i) / 30, Landmarks: posetest.PushUp(e, 175)}
	}
	return frames
}

// coreCount runs frames straight through a detector.
func coreCount(t *testing.T, kind exercise.Kind, frames []pose.Frame) int {
	t.Helper()

	d, err := exercise.New(kind, exercise.DefaultConfig())
	if err != nil {
		t.Fatalf("exercise.New() error = %v", err)
	}
	count := 0
	for _, f := range frames {
		count = d.Process(f.Landmarks, f.Timestamp)
	}
	return count
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return bytes.NewReader(data)
}

func serve(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}
