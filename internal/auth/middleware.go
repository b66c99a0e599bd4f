package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/growhub/growhub/pkg/logging"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const identityContextKey contextKey = "auth_identity"

// IdentityFromContext retrieves the caller identity from the request context.
// Returns nil if the request was not authenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	if ident, ok := ctx.Value(identityContextKey).(*Identity); ok {
		return ident
	}
	return nil
}

// ContextWithIdentity returns a new context with the identity attached.
func ContextWithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, ident)
}

// Middleware validates bearer tokens and attaches the caller identity to the
// request context. The organization id also lands in the logging context so
// every log line downstream carries it.
type Middleware struct {
	validator *Validator
}

// NewMiddleware creates authentication middleware backed by the validator.
func NewMiddleware(validator *Validator) *Middleware {
	return &Middleware{validator: validator}
}

// Authenticate enforces a valid bearer token on every request. When the
// validator is configured as disabled the request passes through untouched,
// which keeps local development and tests free of token plumbing.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.validator.config.Disabled {
			next.ServeHTTP(w, r)
			return
		}

		token := ExtractToken(r)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		ident, err := m.validator.ValidateToken(token)
		if err != nil {
			message := "invalid token"
			switch err {
			case ErrExpiredToken:
				message = "token has expired"
			case ErrInvalidIssuer:
				message = "invalid token issuer"
			}
			writeJSONError(w, http.StatusUnauthorized, message)
			return
		}

		ctx := ContextWithIdentity(r.Context(), ident)
		if ident.OrganizationID != "" {
			ctx = context.WithValue(ctx, logging.OrganizationIDKey, ident.OrganizationID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractToken extracts the bearer token from the Authorization header.
func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// errorResponse represents a JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}
