package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/session"
	"github.com/ayusman/repcount/internal/store"
)

// MaxAnalyzeBody caps the size of an offline analysis upload.
const MaxAnalyzeBody = 64 << 20

// SessionsHandler serves stored sessions and runs offline analyses.
type SessionsHandler struct {
	store    *store.Store
	tuning   exercise.Config
	metrics  *metrics.Manager
	onResult func(session.Result)
}

// NewSessionsHandler creates a SessionsHandler. metricsManager may be nil.
func NewSessionsHandler(s *store.Store, tuning exercise.Config, metricsManager *metrics.Manager) *SessionsHandler {
	return &SessionsHandler{
		store:   s,
		tuning:  tuning,
		metrics: metricsManager,
	}
}

// OnResult registers a callback invoked after each successful analysis.
func (h *SessionsHandler) OnResult(fn func(session.Result)) {
	h.onResult = fn
}

// ServeHTTP routes:
//
//	/api/sessions            GET list, POST analyze
//	/api/sessions/{id}       GET, DELETE
//	/api/sessions/{id}/reps  GET
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.analyze(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	id, rest, _ := strings.Cut(path, "/")
	switch rest {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	case "reps":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.reps(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type analyzeRequest struct {
	Exercise string       `json:"exercise"`
	Frames   []pose.Frame `json:"frames"`
	Persist  *bool        `json:"persist,omitempty"`
}

type analyzeResponse struct {
	Session   *store.Session       `json:"session"`
	Summary   exercise.Summary     `json:"summary"`
	Reps      []exercise.RepRecord `json:"reps"`
	Persisted bool                 `json:"persisted"`
}

type sessionResponse struct {
	Session *store.Session   `json:"session"`
	Summary exercise.Summary `json:"summary"`
}

type listSessionsResponse struct {
	Sessions []*store.Session `json:"sessions"`
}

type listRepsResponse struct {
	Reps []exercise.RepRecord `json:"reps"`
}

// analyze handles POST /api/sessions: runs the uploaded frames through a fresh
// detector and stores the result unless persist is false.
func (h *SessionsHandler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxAnalyzeBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	kind, err := exercise.ParseKind(req.Exercise)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown exercise")
		return
	}
	if len(req.Frames) == 0 {
		writeError(w, http.StatusBadRequest, "Frames are required")
		return
	}

	res, err := session.Analyze(r.Context(), session.Config{
		Kind:    kind,
		Tuning:  h.tuning,
		Source:  session.SourceAPI,
		Metrics: h.metrics,
	}, req.Frames)
	if err != nil {
		log.WithError(err).Error("offline analysis failed")
		writeError(w, http.StatusInternalServerError, "Failed to analyze frames")
		return
	}

	stored := store.FromResult(res)
	persist := req.Persist == nil || *req.Persist
	if persist {
		if err := h.store.Sessions().Create(stored, res.Reps); err != nil {
			log.WithError(err).WithField("session", res.ID).Error("failed to store session")
			writeError(w, http.StatusInternalServerError, "Failed to store session")
			return
		}
	}

	if h.onResult != nil {
		h.onResult(res)
	}

	reps := res.Reps
	if reps == nil {
		reps = []exercise.RepRecord{}
	}

	status := http.StatusOK
	if persist {
		status = http.StatusCreated
	}
	writeJSON(w, status, analyzeResponse{
		Session:   stored,
		Summary:   res.Summary,
		Reps:      reps,
		Persisted: persist,
	})
}

// list handles GET /api/sessions?exercise=&limit=.
func (h *SessionsHandler) list(w http.ResponseWriter, r *http.Request) {
	var opts store.ListOptions

	if name := r.URL.Query().Get("exercise"); name != "" {
		kind, err := exercise.ParseKind(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unknown exercise")
			return
		}
		opts.Exercise = kind
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		opts.Limit = limit
	}

	sessions, err := h.store.Sessions().List(opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}

	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}

// get handles GET /api/sessions/{id}. The summary is recomputed from the stored reps.
func (h *SessionsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sess, ok := h.lookup(w, id)
	if !ok {
		return
	}

	reps, err := h.store.Reps().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reps")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Session: sess,
		Summary: exercise.Summarize(sess.Exercise, reps),
	})
}

// reps handles GET /api/sessions/{id}/reps.
func (h *SessionsHandler) reps(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := h.lookup(w, id); !ok {
		return
	}

	reps, err := h.store.Reps().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reps")
		return
	}
	if reps == nil {
		reps = []exercise.RepRecord{}
	}

	writeJSON(w, http.StatusOK, listRepsResponse{Reps: reps})
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Sessions().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) lookup(w http.ResponseWriter, id string) (*store.Session, bool) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return nil, false
	}
	return sess, true
}
