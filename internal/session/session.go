// Package session runs one exercise detector over a stream of landmark frames
// and reports repetitions as they complete.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/pose"
)

// Frame sources recorded on a session.
const (
	SourceCamera = "camera"
	SourceVideo  = "video"
	SourceAPI    = "api"
)

// FrameSource yields landmark frames in timestamp order.
// Next returns io.EOF when the stream is exhausted.
type FrameSource interface {
	Next(ctx context.Context) (pose.Frame, error)
}

// RepEvent is delivered for every newly completed repetition. For
// sit-and-reach it is delivered whenever the best reach improves.
type RepEvent struct {
	SessionID string             `json:"session_id"`
	Kind      exercise.Kind      `json:"exercise"`
	Rep       exercise.RepRecord `json:"rep"`
	Metrics   exercise.Metrics   `json:"metrics"`
}

// Config holds the options for a new session.
type Config struct {
	Kind    exercise.Kind
	Tuning  exercise.Config
	Source  string
	OnRep   func(RepEvent)
	OnFrame func(exercise.Metrics)
	Metrics *metrics.Manager

	// now is overridden by tests.
	now func() time.Time
}

// Result is the immutable record of a finished session.
type Result struct {
	ID         string               `json:"id"`
	Kind       exercise.Kind        `json:"exercise"`
	Source     string               `json:"source"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Frames     int                  `json:"frames"`
	Summary    exercise.Summary     `json:"summary"`
	Reps       []exercise.RepRecord `json:"reps"`
}

// Session owns a single detector. Feed, Run and the accessors are safe to
// call from different goroutines.
type Session struct {
	ID        string
	Kind      exercise.Kind
	Source    string
	StartedAt time.Time

	cfg Config
	det exercise.Detector

	mu         sync.Mutex
	frames     int
	reported   int
	lastBest   float64
	cancel     context.CancelFunc
	stopped    bool
	finished   bool
	finishedAt time.Time
}

// New creates a session with a fresh detector for cfg.Kind.
func New(cfg Config) (*Session, error) {
	det, err := exercise.New(cfg.Kind, cfg.Tuning)
	if err != nil {
		return nil, err
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	if cfg.Source == "" {
		cfg.Source = SourceAPI
	}

	s := &Session{
		ID:        uuid.New().String(),
		Kind:      cfg.Kind,
		Source:    cfg.Source,
		StartedAt: cfg.now(),
		cfg:       cfg,
		det:       det,
	}

	log.WithFields(log.Fields{
		"session":  s.ID,
		"exercise": s.Kind,
		"source":   s.Source,
	}).Info("session started")

	return s, nil
}

// Feed passes one frame to the detector and returns the repetition count.
// Callbacks run after the session lock is released.
func (s *Session) Feed(f pose.Frame) int {
	s.mu.Lock()
	count := s.det.Process(f.Landmarks, f.Timestamp)
	s.frames++
	events := s.collectEvents(count)
	var snapshot exercise.Metrics
	if s.cfg.OnFrame != nil || len(events) > 0 {
		snapshot = s.det.Metrics()
	}
	s.mu.Unlock()

	if m := s.cfg.Metrics; m != nil {
		m.CounterFrames.WithLabelValues(string(s.Kind)).Inc()
		for _, ev := range events {
			m.CounterReps.WithLabelValues(string(s.Kind), strconv.FormatBool(ev.Rep.Correct)).Inc()
			m.HistRepDuration.WithLabelValues(string(s.Kind)).Observe(ev.Rep.Duration)
		}
	}

	for _, ev := range events {
		ev.Metrics = snapshot
		log.WithFields(log.Fields{
			"session": s.ID,
			"rep":     ev.Rep.Index,
			"correct": ev.Rep.Correct,
			"issues":  ev.Rep.FormIssues,
		}).Debug("repetition")
		if s.cfg.OnRep != nil {
			s.cfg.OnRep(ev)
		}
	}
	if s.cfg.OnFrame != nil {
		s.cfg.OnFrame(snapshot)
	}

	return count
}

// collectEvents returns the records not yet reported. Must hold s.mu.
func (s *Session) collectEvents(count int) []RepEvent {
	if s.Kind == exercise.KindSitAndReach {
		if count == 0 {
			return nil
		}
		best := s.det.Reps()[0]
		if s.reported > 0 && best.Extremum <= s.lastBest {
			return nil
		}
		s.reported = 1
		s.lastBest = best.Extremum
		return []RepEvent{{SessionID: s.ID, Kind: s.Kind, Rep: best}}
	}

	if count <= s.reported {
		return nil
	}
	reps := s.det.Reps()
	events := make([]RepEvent, 0, count-s.reported)
	for _, r := range reps[s.reported:count] {
		events = append(events, RepEvent{SessionID: s.ID, Kind: s.Kind, Rep: r})
	}
	s.reported = count
	return events
}

// Run pulls frames from src until it is exhausted, ctx is cancelled or Stop
// is called. End of stream and Stop return nil.
func (s *Session) Run(ctx context.Context, src FrameSource) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return errors.New("session already finished")
	}
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.cancel = cancel
	s.mu.Unlock()

	if m := s.cfg.Metrics; m != nil {
		m.GaugeActiveSessions.Inc()
		defer m.GaugeActiveSessions.Dec()
	}

	for {
		if ctx.Err() != nil {
			return s.stopErr(ctx)
		}
		f, err := src.Next(ctx)
		switch {
		case err == nil:
			s.Feed(f)
		case errors.Is(err, io.EOF):
			return nil
		case ctx.Err() != nil:
			return s.stopErr(ctx)
		default:
			return fmt.Errorf("read frame: %w", err)
		}
	}
}

// stopErr maps a cancelled run context to nil when Stop caused it.
func (s *Session) stopErr(ctx context.Context) error {
	if s.isStopped() {
		return nil
	}
	return ctx.Err()
}

// Stop makes a running Run return. A Run that starts after Stop returns
// immediately.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Session) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Count returns the current repetition count.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.det.Reps())
}

// Reps returns a copy of the completed repetitions.
func (s *Session) Reps() []exercise.RepRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.det.Reps()
}

// Metrics returns the detector's live snapshot.
func (s *Session) Metrics() exercise.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.det.Metrics()
}

// Summary aggregates the repetitions so far.
func (s *Session) Summary() exercise.Summary {
	return exercise.Summarize(s.Kind, s.Reps())
}

// Frames returns how many frames have been fed.
func (s *Session) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Finish stops the session and returns its result. Calling Finish again
// returns the same result without recounting.
func (s *Session) Finish() Result {
	s.Stop()

	s.mu.Lock()
	first := !s.finished
	if first {
		s.finished = true
		s.finishedAt = s.cfg.now()
	}
	reps := s.det.Reps()
	res := Result{
		ID:         s.ID,
		Kind:       s.Kind,
		Source:     s.Source,
		StartedAt:  s.StartedAt,
		FinishedAt: s.finishedAt,
		Frames:     s.frames,
		Reps:       reps,
	}
	s.mu.Unlock()

	res.Summary = exercise.Summarize(s.Kind, reps)

	if first {
		if m := s.cfg.Metrics; m != nil {
			m.CounterSessions.WithLabelValues(string(s.Kind), s.Source).Inc()
		}
		log.WithFields(log.Fields{
			"session":    s.ID,
			"exercise":   s.Kind,
			"reps":       res.Summary.Total,
			"form_score": res.Summary.FormScore,
			"frames":     res.Frames,
		}).Info("session finished")
	}

	return res
}
