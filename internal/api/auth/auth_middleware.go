package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hassonapp/chatter/config"
	"github.com/hassonapp/chatter/internal/api"
)

// Authenticate verifies the bearer token and attaches the session claims to
// the request context. A missing header and an invalid token get distinct
// messages but the same status; nothing in the response says why
// verification failed.
func Authenticate(cfg config.JWTConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not available. Please login again.")
				return
			}

			claims, err := VerifyToken(cfg, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.DebugContext(r.Context(), "Session token rejected", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is invalid. Please login again.")
				return
			}

			next.ServeHTTP(w, r.WithContext(api.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAuthenticated gates handlers that assume a verified session is
// already on the context. It catches wiring mistakes where a protected
// handler is mounted without Authenticate in front of it.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := api.ClaimsFromContext(r.Context()); !ok {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not available. Please login again.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
