// Package middleware provides HTTP middleware for authentication, admin
// gating, and rate limiting.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/luxtravel/portico/pkg/auth"
	"github.com/luxtravel/portico/pkg/httputil"
)

type contextKey string

// claimsKey is the context key for verified session claims
const claimsKey contextKey = "auth_claims"

// AuthMiddleware validates bearer session tokens
type AuthMiddleware struct {
	issuer *auth.TokenIssuer
}

// NewAuthMiddleware creates authentication middleware backed by the token issuer
func NewAuthMiddleware(issuer *auth.TokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer}
}

// Handler wraps an HTTP handler with bearer token authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		claims, err := m.issuer.Verify(parts[1])
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClaims extracts verified session claims from the request
func GetClaims(r *http.Request) *auth.Claims {
	claims, ok := r.Context().Value(claimsKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// RequireAdmin gates a handler behind the admin role. The check is simple
// role equality, not scope-based.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r)
		if claims == nil {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		if claims.Role != auth.RoleAdmin {
			httputil.WriteForbidden(w, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
