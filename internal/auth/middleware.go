package auth

import (
	"context"
	"net/http"

	"github.com/tmorgan-dev/authgate/internal/models"
	pkghttp "github.com/tmorgan-dev/authgate/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

// SessionContextKey is the key for storing session claims in context
const SessionContextKey contextKey = "session"

// RequireSession authorizes requests by the admin session cookie and
// injects the verified claims into the request context. Every failure
// mode (missing cookie, tampered token, expired session) maps to the
// same 401 so nothing about the token's state leaks.
func RequireSession(sm *SessionManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := GetSessionCookie(r)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			claims, err := sm.Verify(token)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext returns the session claims set by
// RequireSession, or nil when the request is unauthenticated.
func GetSessionFromContext(r *http.Request) *models.SessionClaims {
	claims, _ := r.Context().Value(SessionContextKey).(*models.SessionClaims)
	return claims
}
