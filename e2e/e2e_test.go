package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/app"
	"github.com/ayusman/repcount/internal/capture"
	"github.com/ayusman/repcount/internal/detector"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/pose/posetest"
	"github.com/ayusman/repcount/internal/server"
	"github.com/ayusman/repcount/internal/store"
)

// squatPoses is two slow squats with holds at the top and bottom.
func squatPoses() [][]pose.Landmark {
	var knees []float64
	for range 2 {
		for range 5 {
			knees = append(knees, 170)
		}
		knees = append(knees, posetest.Ramp(170, 90, 20)...)
		for range 3 {
			knees = append(knees, 90)
		}
		knees = append(knees, posetest.Ramp(90, 170, 20)...)
	}
	for range 3 {
		knees = append(knees, 170)
	}

	out := make([][]pose.Landmark, len(knees))
	for i, k := range knees {
		out[i] = posetest.Squat(k, k)
	}
	return out
}

func TestE2E_LiveWorkout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	m, reg := metrics.NewTestManagerAndRegistry()
	hub := server.NewHub(m)
	srv := server.New(server.Config{
		Store:    s,
		Tuning:   exercise.DefaultConfig(),
		Hub:      hub,
		Metrics:  m,
		Registry: reg,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	defer hub.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/live", nil)
	if err != nil {
		t.Fatalf("dial live feed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("live client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	poses := squatPoses()
	det := detector.NewMockDetector()
	det.SetSequence(poses)

	mat := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer mat.Close()
	frames := make([]*gocv.Mat, len(poses))
	for i := range frames {
		frames[i] = &mat
	}

	live := app.New(app.Config{
		Store:    s,
		Hub:      hub,
		Metrics:  m,
		Tuning:   exercise.DefaultConfig(),
		Exercise: exercise.KindSquat,
		Source:   capture.NewMockCamera(frames, false),
		Detector: det,
	})

	t.Run("LiveFeed", func(t *testing.T) {
		if err := live.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		reps := 0
		for {
			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			_, data, err := conn.ReadMessage()
			if err != nil {
				t.Fatalf("read live feed: %v", err)
			}
			var msg server.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("invalid message: %v", err)
			}
			if msg.Type == server.MessageRep {
				reps++
			}
			if msg.Type == server.MessageSessionEnd {
				if msg.Summary == nil || msg.Summary.Total != 2 {
					t.Errorf("session_end summary = %+v, want 2 reps", msg.Summary)
				}
				break
			}
		}
		if reps != 2 {
			t.Errorf("received %d rep messages, want 2", reps)
		}

		live.Wait()
		if err := live.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	})

	var sessionID string

	t.Run("ListSessions", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/sessions?exercise=squats")
		if err != nil {
			t.Fatalf("list sessions: %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Sessions []store.Session `json:"sessions"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Sessions) != 1 {
			t.Fatalf("expected 1 session, got %d", len(body.Sessions))
		}
		if body.Sessions[0].Total != 2 || body.Sessions[0].Source != "camera" {
			t.Errorf("unexpected session %+v", body.Sessions[0])
		}
		sessionID = body.Sessions[0].ID
	})

	t.Run("SessionReps", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/sessions/" + sessionID + "/reps")
		if err != nil {
			t.Fatalf("list reps: %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Reps []exercise.RepRecord `json:"reps"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Reps) != 2 {
			t.Fatalf("expected 2 reps, got %d", len(body.Reps))
		}
		for i, r := range body.Reps {
			if r.Index != i+1 {
				t.Errorf("rep %d has index %d", i, r.Index)
			}
		}
	})

	t.Run("OfflineMatchesLive", func(t *testing.T) {
		clip := make([]pose.Frame, len(poses))
		for i, lm := range poses {
			clip[i] = pose.Frame{Timestamp: float64(i) / capture.DefaultFPS, Landmarks: lm}
		}
		payload, err := json.Marshal(map[string]any{"exercise": "squat", "frames": clip, "persist": false})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		resp, err := http.Post(ts.URL+"/api/sessions", "application/json", bytes.NewReader(payload))
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		var body struct {
			Summary exercise.Summary `json:"summary"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Summary.Total != 2 {
			t.Errorf("offline analysis counted %d, want 2", body.Summary.Total)
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/metrics")
		if err != nil {
			t.Fatalf("metrics: %v", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read metrics: %v", err)
		}
		for _, name := range []string{"repcount_test_reps", "repcount_test_sessions", "repcount_test_frames_processed"} {
			if !strings.Contains(string(data), name) {
				t.Errorf("metrics output lacks %s", name)
			}
		}
	})
}
