// internal/api/middleware.go
package api

import (
	"net/http"
	"strconv"
	"time"

	"advisor-matching/internal/common/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// loggingMiddleware logs each request and counts it by route pattern and status.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

			fields := map[string]interface{}{
				"method":      r.Method,
				"route":       route,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			}
			if route == "/metrics" || route == "/health" {
				s.logger.Debug("http request", fields)
				return
			}
			s.logger.Info("http request", fields)
		}()

		next.ServeHTTP(ww, r)
	})
}
