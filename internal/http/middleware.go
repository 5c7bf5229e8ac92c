package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-showcase/internal/logging"
)

// Route labels used for request metrics.
const (
	routeHealth  = "healthz"
	routePreview = "preview"
	routeMedia   = "media"
	routeAPI     = "api"
)

// statusWriter captures the status code and body size for logging.
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
	// route is relabelled by handlers that branch, e.g. preview to media.
	route string
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// instrument logs the request and counts it under route.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithFields(r.Context(), map[string]any{"request_id": requestID})

		sw := &statusWriter{ResponseWriter: w, route: route}
		next.ServeHTTP(sw, r.WithContext(ctx))
		if sw.status == 0 {
			sw.status = http.StatusOK
		}

		s.metrics.IncRequest(sw.route, sw.status)
		logging.WithFields(logging.FromContext(ctx, s.logger), map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"route":       sw.route,
			"status":      sw.status,
			"bytes":       sw.size,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("http.request.completed")
	})
}

// relabel changes the metrics route of an instrumented request.
func relabel(w http.ResponseWriter, route string) {
	if sw, ok := w.(*statusWriter); ok {
		sw.route = route
	}
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logging.WithFields(s.logger, map[string]any{
					"panic":  rec,
					"method": r.Method,
					"path":   r.URL.Path,
				}).Error("http.request.panic")
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
