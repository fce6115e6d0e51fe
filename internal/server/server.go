// Package server provides the HTTP API, live WebSocket feed and metrics endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/middleware"
	"github.com/ayusman/repcount/internal/server/api"
	"github.com/ayusman/repcount/internal/session"
	"github.com/ayusman/repcount/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Tuning    exercise.Config
	Hub       *Hub
	Metrics   *metrics.Manager
	Registry  *prometheus.Registry
}

// Server represents the HTTP server.
type Server struct {
	config  Config
	mux     *http.ServeMux
	handler http.Handler
	start   time.Time

	mu      sync.Mutex
	httpSrv *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()

	mws := []func(http.Handler) http.Handler{middleware.PanicRecovery(config.Metrics)}
	if config.Metrics != nil {
		mws = append(mws, middleware.RequestMetrics(config.Metrics, routeLabel))
	}
	mws = append(mws, middleware.LogRequest())
	s.handler = middleware.Chain(s.mux, mws...)

	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/api/exercises", api.NewExercisesHandler(s.config.Tuning))

	if s.config.Store != nil {
		sessions := api.NewSessionsHandler(s.config.Store, s.config.Tuning, s.config.Metrics)
		if hub := s.config.Hub; hub != nil {
			sessions.OnResult(func(res session.Result) {
				hub.Broadcast(Message{
					Type:      MessageSessionEnd,
					SessionID: res.ID,
					Exercise:  res.Kind,
					Summary:   &res.Summary,
				})
			})
		}
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/live", s.config.Hub)
	}

	if s.config.Registry != nil {
		s.mux.Handle("/metrics", promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// routeLabel collapses session IDs so request metrics keep a small label set.
func routeLabel(r *http.Request) string {
	p := r.URL.Path
	switch {
	case p == "/api/sessions" || !strings.HasPrefix(p, "/api/sessions/"):
		if strings.HasPrefix(p, "/api/") || p == "/metrics" {
			return p
		}
		return "static"
	case strings.HasSuffix(p, "/reps"):
		return "/api/sessions/{id}/reps"
	default:
		return "/api/sessions/{id}"
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address and blocks until
// it fails or Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	log.WithField("addr", addr).Info("http server listening")
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and closes live clients.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.config.Hub != nil {
		s.config.Hub.Close()
	}
	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
