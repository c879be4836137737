package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	var pattern string
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/api/ticket/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		pattern = routePattern(r)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ticket/abc", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/123", nil))
	assert.Equal(t, "/items/{id}", pattern)
}

func TestRoutePattern_OutsideRouter(t *testing.T) {
	assert.Equal(t, "unmatched", routePattern(httptest.NewRequest(http.MethodGet, "/x", nil)))
}
