package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/metrics"
)

const panicBody = `{"error":"internal server error"}` + "\n"

// PanicRecovery answers a panicking handler with a JSON 500 so the dashboard
// always gets the same error shape as the API. http.ErrAbortHandler is passed
// through untouched.
func PanicRecovery(m *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				log.WithFields(log.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  rec,
				}).Errorf("handler panicked\n%s", debug.Stack())
				if m != nil {
					m.CounterHandleRequestPanic.Inc()
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(panicBody))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
