package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/avelasco/docqa/internal/api/ctxkeys"
)

// AccessLog writes one structured log line per request: method, path,
// status, duration and the authenticated client when present. Expected
// order in the router: RequireAuth -> AccessLog -> handlers.
func AccessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if log == nil {
				next.ServeHTTP(w, r)
				return
			}

			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", recorder.statusCode),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			if client, ok := ctxkeys.String(r.Context(), ctxkeys.Client); ok {
				attrs = append(attrs, slog.String("client", client))
			}
			log.Info("request", attrs...)
		})
	}
}

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
