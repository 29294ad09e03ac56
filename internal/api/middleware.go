// Package api implements the notas REST API using chi.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/notas/internal/apperr"
	"github.com/starford/notas/internal/auth"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// IdentityChecker reports whether a user id still exists.
type IdentityChecker interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

// RequireAuth rejects requests without a usable bearer token. A missing
// credential is answered with 401, an invalid or expired one with 403. When
// checker is non-nil the token's identity must also still exist.
func RequireAuth(tokens TokenVerifier, checker IdentityChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, r, apperr.MissingCredential(), false)
				return
			}

			userID, err := tokens.Verify(raw)
			if err != nil {
				slog.Debug("token rejected", slog.String("error", err.Error()))
				writeError(w, r, apperr.InvalidCredential(), false)
				return
			}

			if checker != nil {
				exists, err := checker.Exists(r.Context(), userID)
				if err != nil {
					writeError(w, r, err, false)
					return
				}
				if !exists {
					writeError(w, r, apperr.InvalidCredential(), false)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth attaches the identity of a valid bearer token and otherwise
// lets the request through anonymously.
func OptionalAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := tokens.Verify(raw)
			if err != nil {
				slog.Debug("optional token ignored", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
