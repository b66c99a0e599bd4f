package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateMiddleware(t *testing.T) {
	validator := NewValidator(Config{Secret: testSecret}, nil)
	mw := NewMiddleware(validator)

	var captured *Identity
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token attaches identity", func(t *testing.T) {
		captured = nil
		tokenStr := signToken(t, jwt.MapClaims{
			"sub":            "user-1",
			"organizationId": "org-1",
			"exp":            time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/cycles", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		assert.Equal(t, "org-1", captured.OrganizationID)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cycles", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "authentication required")
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cycles", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("disabled validator passes through", func(t *testing.T) {
		open := NewMiddleware(NewValidator(Config{Disabled: true}, nil))
		passed := false
		h := open.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
		}))

		req := httptest.NewRequest(http.MethodGet, "/cycles", nil)
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.True(t, passed)
	})
}
