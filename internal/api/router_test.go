package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apitest "github.com/growhub/growhub/internal/api/testing"
	"github.com/growhub/growhub/pkg/metrics"
)

func TestRouter(t *testing.T) {
	f := apitest.NewFixture()

	t.Run("sets json content type", func(t *testing.T) {
		router := NewRouter(f.Handler)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	})

	t.Run("unknown route is 404", func(t *testing.T) {
		router := NewRouter(f.Handler)
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("metrics endpoint exposed when registry configured", func(t *testing.T) {
		router := NewRouterWithConfig(f.Handler, RouterConfig{Metrics: metrics.NewRegistry()})
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "growhub_")
	})

	t.Run("metrics endpoint absent by default", func(t *testing.T) {
		router := NewRouter(f.Handler)
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
