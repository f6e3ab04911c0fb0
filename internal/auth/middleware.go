package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

type contextKey string

// UserClaimsKey is the context key for user claims.
const UserClaimsKey = contextKey("userClaims")

// ClaimsFromContext returns the verified claims attached by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}

// Middleware protects routes with a bearer token from the Authorization header.
func Middleware(tokens *TokenManager) func(http.Handler) http.Handler {
	return gate(tokens, false)
}

// QueryTokenMiddleware also accepts the token from a "token" query parameter.
// Browsers cannot set headers on websocket upgrades.
func QueryTokenMiddleware(tokens *TokenManager) func(http.Handler) http.Handler {
	return gate(tokens, true)
}

func gate(tokens *TokenManager, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := BearerToken(r)
			if tokenStr == "" && allowQuery {
				tokenStr = r.URL.Query().Get("token")
			}
			if tokenStr == "" {
				unauthorized(w, "No token provided")
				return
			}

			claims, err := tokens.Verify(tokenStr)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected auth token")
				unauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
