package middleware

import (
	"net/http"
	"strconv"
	"time"

	"planora-ticketing/internal/monitoring"

	"github.com/go-chi/chi/v5"
)

// MetricsMiddleware records request counts and latency per chi route pattern,
// so /api/ticket/{id} is one series rather than one per ticket.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		monitoring.TrackHTTPRequest(routePattern(r), r.Method, strconv.Itoa(wrapped.statusCode), time.Since(start))
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
