package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/isdelr/charsheet-be/internal/common"
	"github.com/isdelr/charsheet-be/internal/models"
	"github.com/rs/zerolog/hlog"
)

// IdentityResolver looks up the public identity of a user id. It must return
// an error wrapping common.ErrNotFound when the user does not exist.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (models.Identity, error)
}

type contextKey string

const identityKey = contextKey("identity")

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached by the middleware.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}

// Middleware creates a middleware for protecting routes. The token is taken
// from the session cookie, falling back to an Authorization bearer header.
func Middleware(codec *TokenCodec, cookieName string, users IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := hlog.FromRequest(r)

			tokenStr := tokenFromRequest(r, cookieName)
			if tokenStr == "" {
				logger.Warn().Str("reason", "no token").Msg("Rejected unauthenticated request")
				writeUnauthorized(w)
				return
			}

			userID, err := codec.Verify(tokenStr)
			if err != nil {
				logger.Warn().Err(err).Str("reason", "token invalid or expired").Msg("Rejected unauthenticated request")
				writeUnauthorized(w)
				return
			}

			identity, err := users.ResolveIdentity(r.Context(), userID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					logger.Warn().Str("user_id", userID).Str("reason", "user not found").Msg("Rejected unauthenticated request")
					writeUnauthorized(w)
					return
				}
				logger.Error().Err(err).Str("user_id", userID).Msg("Failed to resolve session user")
				writeJSONMessage(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSONMessage(w, http.StatusUnauthorized, "Not authorized")
}

func writeJSONMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
