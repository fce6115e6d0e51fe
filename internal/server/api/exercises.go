package api

import (
	"net/http"

	"github.com/ayusman/repcount/internal/exercise"
)

// ExercisesHandler lists the supported exercises.
type ExercisesHandler struct {
	tuning exercise.Config
}

func NewExercisesHandler(tuning exercise.Config) *ExercisesHandler {
	return &ExercisesHandler{tuning: tuning}
}

type exerciseResponse struct {
	Name    exercise.Kind `json:"name"`
	Aliases []string      `json:"aliases"`
}

type listExercisesResponse struct {
	Exercises []exerciseResponse `json:"exercises"`
	Tuning    exercise.Config    `json:"tuning"`
}

func (h *ExercisesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	kinds := exercise.Kinds()
	response := listExercisesResponse{
		Exercises: make([]exerciseResponse, 0, len(kinds)),
		Tuning:    h.tuning,
	}
	for _, k := range kinds {
		response.Exercises = append(response.Exercises, exerciseResponse{Name: k, Aliases: exercise.Aliases(k)})
	}

	writeJSON(w, http.StatusOK, response)
}
