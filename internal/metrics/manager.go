// Package metrics holds the Prometheus instruments of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "repcount"
	Subsystem = "server"
)

type Manager struct {
	// counters
	CounterFrames             *prometheus.CounterVec
	CounterFramesNoPerson     prometheus.Counter
	CounterReps               *prometheus.CounterVec
	CounterSessions           *prometheus.CounterVec
	CounterRequests           *prometheus.CounterVec
	CounterHandleRequestPanic prometheus.Counter
	CounterHookRuns           *prometheus.CounterVec

	// gauges
	GaugeActiveSessions prometheus.Gauge
	GaugeLiveClients    prometheus.Gauge

	// histograms
	HistPoseLatency          prometheus.Histogram
	HistRepDuration          *prometheus.HistogramVec
	HistogramRequestDuration *prometheus.HistogramVec
}

// SetupPrometheus returns a registry with the Go runtime and process collectors.
func SetupPrometheus() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewTestManager() *Manager {
	return NewManager(Namespace, "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager(Namespace, "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterFrames := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames_processed",
		Help:      "The total number of landmark frames fed to exercise detectors",
	}, []string{"exercise"})
	counterFramesNoPerson := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames_no_person",
		Help:      "The total number of video frames where no person was detected",
	})
	counterReps := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reps",
		Help:      "The total number of completed repetitions",
	}, []string{"exercise", "correct"})
	counterSessions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions",
		Help:      "The total number of finished workout sessions",
	}, []string{"exercise", "source"})
	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterHookRuns := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "hook_runs",
		Help:      "The total number of hook plugin executions",
	}, []string{"plugin", "event", "success"})

	gaugeActiveSessions := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_sessions",
		Help:      "Number of sessions currently consuming frames",
	})
	gaugeLiveClients := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "live_clients",
		Help:      "Number of connected live feed websocket clients",
	})

	histPoseLatency := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pose_latency_seconds",
		Help:      "Time spent estimating pose for a single frame",
		Buckets:   []float64{.005, .01, .02, .033, .05, .075, .1, .2, .5, 1},
	})
	histRepDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rep_duration_seconds",
		Help:      "Duration of completed repetitions",
		Buckets:   []float64{.1, .2, .3, .5, .75, 1, 1.5, 2, 3, 5, 10},
	}, []string{"exercise"})
	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterFrames:             counterFrames,
		CounterFramesNoPerson:     counterFramesNoPerson,
		CounterReps:               counterReps,
		CounterSessions:           counterSessions,
		CounterRequests:           counterRequests,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		CounterHookRuns:           counterHookRuns,
		GaugeActiveSessions:       gaugeActiveSessions,
		GaugeLiveClients:          gaugeLiveClients,
		HistPoseLatency:           histPoseLatency,
		HistRepDuration:           histRepDuration,
		HistogramRequestDuration:  histogramRequestDuration,
	}
}
