package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/capture"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/plugin"
	"github.com/ayusman/repcount/internal/server"
	"github.com/ayusman/repcount/internal/session"
	"github.com/ayusman/repcount/internal/store"
)

// run drives one workout until it is stopped or the camera runs dry, then
// finalizes it:
//  1. finish the session and close the camera
//  2. wait for in-flight rep hooks
//  3. persist the session and its reps
//  4. publish session_end to the live feed and the hooks
func (a *App) run(w *workout) {
	defer close(w.done)

	src := capture.NewPoseSource(a.source, a.detector, a.config.Metrics)
	if err := w.sess.Run(context.Background(), src); err != nil {
		log.WithError(err).WithField("session", w.sess.ID).Error("workout stopped on error")
	}

	res := w.sess.Finish()
	if err := a.source.Close(); err != nil {
		log.WithError(err).Warn("failed to close camera")
	}

	a.hooks.Wait()
	a.persist(res)

	final := w.sess.Metrics()
	a.broadcast(server.Message{Type: server.MessageMetrics, SessionID: res.ID, Exercise: res.Kind, Metrics: &final})
	a.broadcast(server.Message{Type: server.MessageSessionEnd, SessionID: res.ID, Exercise: res.Kind, Summary: &res.Summary})
	a.dispatch(plugin.Request{Event: plugin.EventSessionEnd, Exercise: res.Kind, SessionID: res.ID, Summary: &res.Summary})

	a.mu.Lock()
	a.current = nil
	a.last = &res
	a.mu.Unlock()

	a.notify()
}

func (a *App) persist(res session.Result) {
	if a.config.Store == nil {
		return
	}
	if err := a.config.Store.Sessions().Create(store.FromResult(res), res.Reps); err != nil {
		log.WithError(err).WithField("session", res.ID).Error("failed to save workout")
		return
	}
	log.WithFields(log.Fields{
		"session": res.ID,
		"reps":    res.Summary.Total,
	}).Info("workout saved")
}

// handleRep runs on the workout goroutine for every new repetition.
func (a *App) handleRep(ev session.RepEvent) {
	rep := ev.Rep
	snapshot := ev.Metrics
	a.broadcast(server.Message{Type: server.MessageRep, SessionID: ev.SessionID, Exercise: ev.Kind, Rep: &rep})
	a.broadcast(server.Message{Type: server.MessageMetrics, SessionID: ev.SessionID, Exercise: ev.Kind, Metrics: &snapshot})
	a.dispatchAsync(plugin.Request{Event: plugin.EventRep, Exercise: ev.Kind, SessionID: ev.SessionID, Rep: &rep})
	a.notify()
}

// handleFrame throttles metrics broadcasts to one per MetricsInterval.
func (a *App) handleFrame(w *workout, m exercise.Metrics) {
	now := time.Now()
	if now.Sub(w.lastPush) < MetricsInterval {
		return
	}
	w.lastPush = now
	a.broadcast(server.Message{Type: server.MessageMetrics, SessionID: w.sess.ID, Exercise: m.Kind, Metrics: &m})
}

// dispatchAsync runs hooks without blocking the frame loop. Close and the end
// of a workout wait for them.
func (a *App) dispatchAsync(req plugin.Request) {
	if a.config.Dispatcher == nil {
		return
	}
	a.hooks.Add(1)
	go func() {
		defer a.hooks.Done()
		a.dispatch(req)
	}()
}

func (a *App) dispatch(req plugin.Request) {
	if a.config.Dispatcher == nil {
		return
	}
	a.config.Dispatcher.Dispatch(context.Background(), req)
}
