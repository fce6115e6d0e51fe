package plugin

import (
	"context"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/metrics"
)

// Result is the outcome of one plugin run.
type Result struct {
	Plugin   string
	Response *Response
	Err      error
}

// Dispatcher delivers an event to every subscribed plugin.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	metrics  *metrics.Manager
}

// NewDispatcher creates a Dispatcher. metricsManager may be nil.
func NewDispatcher(manager *Manager, executor *Executor, metricsManager *metrics.Manager) *Dispatcher {
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		metrics:  metricsManager,
	}
}

// Dispatch runs the subscribers of req.Event one after another and returns
// their results in name order. A failing plugin does not stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) []Result {
	subs := d.manager.Subscribers(req.Event)
	results := make([]Result, 0, len(subs))

	for _, p := range subs {
		if ctx.Err() != nil {
			break
		}

		resp, err := d.executor.Execute(ctx, p, &req)
		if err == nil && !resp.Success {
			log.WithFields(log.Fields{
				"plugin": p.Manifest.Name,
				"event":  req.Event,
				"error":  resp.Error,
			}).Warn("plugin reported failure")
		}
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"plugin": p.Manifest.Name,
				"event":  req.Event,
			}).Error("plugin run failed")
		}

		if d.metrics != nil {
			ok := err == nil && resp.Success
			d.metrics.CounterHookRuns.WithLabelValues(p.Manifest.Name, string(req.Event), strconv.FormatBool(ok)).Inc()
		}

		results = append(results, Result{Plugin: p.Manifest.Name, Response: resp, Err: err})
	}

	return results
}
