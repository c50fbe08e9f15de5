package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ferndale-labs/gatehouse/internal/pkg/metrics"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// LogRequest logs HTTP requests with structured fields
func LogRequest(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip logging health checks and static files to reduce noise
		if r.URL.Path == "/health" || strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     200, // default if WriteHeader not called
		}

		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.RecordHTTPRequest(r.Method, route, wrapped.statusCode, time.Since(start))

		attrs := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.statusCode),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.Int64("bytes", wrapped.written),
			slog.String("client_ip", r.RemoteAddr),
		}
		if principal := PrincipalFromContext(r.Context()); principal != nil {
			attrs = append(attrs,
				slog.String("user_id", principal.UserID),
				slog.String("username", principal.Username))
		}

		if wrapped.statusCode >= 500 {
			log.Error("http request", attrs...)
		} else if wrapped.statusCode >= 400 {
			log.Warn("http request", attrs...)
		} else {
			log.Info("http request", attrs...)
		}
	})
}
