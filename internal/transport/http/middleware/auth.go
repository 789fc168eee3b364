package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/selorg/ops-api/internal/infrastructure/jwt"
	"github.com/selorg/ops-api/internal/security"
)

type contextKey string

const (
	ClaimsKey contextKey = "claims"
	TokenKey  contextKey = "token"
)

// Auth returns middleware that validates the Bearer JWT, rejects revoked
// tokens, and injects the claims and the raw token into the request context.
// The raw token is needed downstream by logout, which blocklists it.
func Auth(provider *jwtinfra.Provider, blocklist *security.BlocklistStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			if blocklist != nil && blocklist.Has(tokenStr) {
				writeJSONError(w, http.StatusUnauthorized, "token has been revoked")
				return
			}
			claims, err := provider.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			ctx = context.WithValue(ctx, TokenKey, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}

// TokenFromContext extracts the raw bearer token from the request context.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(TokenKey).(string)
	return t, ok
}

// RequireRole returns middleware that rejects requests whose JWT claims do
// not carry one of the allowed roles. Must run after Auth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				writeJSONError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
