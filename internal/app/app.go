// Package app runs live workouts: camera frames go through the pose detector
// into an exercise session, and the session's progress is pushed to the live
// feed, the hooks and the store.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/capture"
	"github.com/ayusman/repcount/internal/detector"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/plugin"
	"github.com/ayusman/repcount/internal/server"
	"github.com/ayusman/repcount/internal/session"
	"github.com/ayusman/repcount/internal/store"
)

// MetricsInterval is the minimum spacing of live metrics broadcasts.
const MetricsInterval = 66 * time.Millisecond

var (
	ErrNoDetector = errors.New("no pose detector available")
	ErrRunning    = errors.New("a workout is already running")
)

// Broadcaster receives live feed messages. *server.Hub implements it.
type Broadcaster interface {
	Broadcast(msg server.Message)
}

// Status describes the live workout for status displays.
type Status struct {
	Running  bool          `json:"running"`
	Exercise exercise.Kind `json:"exercise"`
	Count    int           `json:"count"`
}

// Config holds the collaborators of the App. Everything except Tuning is
// optional.
type Config struct {
	Store      *store.Store
	Hub        Broadcaster
	Dispatcher *plugin.Dispatcher
	Metrics    *metrics.Manager
	Tuning     exercise.Config
	Exercise   exercise.Kind

	CameraID       int
	DetectorConfig detector.Config

	// Source and Detector replace the camera and the MediaPipe detector.
	Source   capture.Source
	Detector detector.Detector
}

// App orchestrates one live workout at a time.
type App struct {
	config   Config
	source   capture.Source
	detector detector.Detector

	mu       sync.Mutex
	exercise exercise.Kind
	current  *workout
	last     *session.Result
	onUpdate []func(Status)

	hooks sync.WaitGroup
}

// workout is the state of one running session.
type workout struct {
	sess     *session.Session
	done     chan struct{}
	lastPush time.Time
}

// New creates an App. Without an explicit detector it tries to start
// MediaPipe; when that fails Start reports ErrNoDetector.
func New(config Config) *App {
	a := &App{
		config:   config,
		source:   config.Source,
		detector: config.Detector,
		exercise: config.Exercise,
	}

	if a.source == nil {
		a.source = capture.NewCamera(config.CameraID)
	}

	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(config.DetectorConfig); err == nil {
			a.detector = mp
			log.Info("using MediaPipe pose detection")
		} else {
			log.WithError(err).Warn("MediaPipe not available, live workouts disabled")
		}
	}

	if a.exercise == "" {
		a.exercise = exercise.KindPushUp
	}
	if config.Store != nil {
		name, err := config.Store.Settings().GetOr(store.SettingDefaultExercise, "")
		if err != nil {
			log.WithError(err).Warn("failed to read default exercise")
		} else if kind, err := exercise.ParseKind(name); err == nil {
			a.exercise = kind
		}
	}

	return a
}

// Exercise returns the exercise the next workout will use.
func (a *App) Exercise() exercise.Kind {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.exercise
}

// SetExercise selects the exercise for the next workout and remembers it as
// the default.
func (a *App) SetExercise(kind exercise.Kind) error {
	if _, err := exercise.ParseKind(string(kind)); err != nil {
		return err
	}

	a.mu.Lock()
	if a.current != nil {
		a.mu.Unlock()
		return ErrRunning
	}
	a.exercise = kind
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(store.SettingDefaultExercise, string(kind)); err != nil {
			return fmt.Errorf("save default exercise: %w", err)
		}
	}

	a.notify()
	return nil
}

// OnUpdate registers fn to be called whenever the workout status changes.
func (a *App) OnUpdate(fn func(Status)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onUpdate = append(a.onUpdate, fn)
}

// Start opens the camera and begins a workout of the selected exercise.
// Starting while a workout is running is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	if a.current != nil {
		a.mu.Unlock()
		return nil
	}
	if a.detector == nil {
		a.mu.Unlock()
		return ErrNoDetector
	}

	w := &workout{done: make(chan struct{})}
	sess, err := session.New(session.Config{
		Kind:    a.exercise,
		Tuning:  a.config.Tuning,
		Source:  session.SourceCamera,
		Metrics: a.config.Metrics,
		OnRep:   a.handleRep,
		OnFrame: func(m exercise.Metrics) { a.handleFrame(w, m) },
	})
	if err != nil {
		a.mu.Unlock()
		return err
	}
	w.sess = sess

	if err := a.source.Open(); err != nil {
		a.mu.Unlock()
		return fmt.Errorf("open camera: %w", err)
	}
	a.source.SetFPS(capture.DefaultFPS)

	a.current = w
	a.mu.Unlock()

	a.broadcast(server.Message{Type: server.MessageSessionStart, SessionID: sess.ID, Exercise: sess.Kind})
	a.dispatchAsync(plugin.Request{Event: plugin.EventSessionStart, Exercise: sess.Kind, SessionID: sess.ID})
	a.notify()

	go a.run(w)
	return nil
}

// Stop ends the running workout and waits until it has been saved.
func (a *App) Stop() {
	a.mu.Lock()
	w := a.current
	a.mu.Unlock()

	if w == nil {
		return
	}
	w.sess.Stop()
	<-w.done
}

// Wait blocks until the running workout ends, either through Stop or
// because the source ran out of frames.
func (a *App) Wait() {
	a.mu.Lock()
	w := a.current
	a.mu.Unlock()

	if w != nil {
		<-w.done
	}
}

// Running reports whether a workout is in progress.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil
}

// Count returns the repetition count of the running workout, or of the
// last finished one.
func (a *App) Count() int {
	return a.Status().Count
}

func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := Status{Running: a.current != nil, Exercise: a.exercise}
	switch {
	case a.current != nil:
		st.Exercise = a.current.sess.Kind
		st.Count = a.current.sess.Count()
	case a.last != nil:
		st.Count = a.last.Summary.Total
	}
	return st
}

// Last returns the result of the most recently finished workout.
func (a *App) Last() (session.Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return session.Result{}, false
	}
	return *a.last, true
}

// Close stops any workout and releases the detector.
func (a *App) Close() error {
	a.Stop()
	a.hooks.Wait()
	if a.detector != nil {
		return a.detector.Close()
	}
	return nil
}

func (a *App) notify() {
	st := a.Status()

	a.mu.Lock()
	listeners := append([]func(Status){}, a.onUpdate...)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
}

func (a *App) broadcast(msg server.Message) {
	if a.config.Hub != nil {
		a.config.Hub.Broadcast(msg)
	}
}
