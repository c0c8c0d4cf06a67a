package server

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/carelink/care-auth-server/auth"
	"github.com/carelink/care-auth-server/principals"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyPrincipal stores the authenticated principal
const ContextKeyPrincipal ContextKey = "principal"

// PrincipalFromContext returns the principal a guard attached to the request
// context, or nil if the request is anonymous.
func PrincipalFromContext(ctx context.Context) *principals.Principal {
	principal, _ := ctx.Value(ContextKeyPrincipal).(*principals.Principal)
	return principal
}

// RequireAuthenticated resolves the session cookie via the gateway before any
// business logic runs. Anonymous requests are rejected with a status-only 401.
// On success the fresh principal is attached to the request context.
func (s *Server) RequireAuthenticated() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sessionID := s.sessionIDFromRequest(r)
			principal, err := s.gateway.CurrentPrincipal(r.Context(), sessionID)
			if err != nil {
				if !errors.Is(err, auth.UnauthenticatedErr) {
					log.Err(err).Msg("session resolution failed")
				}
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			// The server-side deadline just slid forward; re-issue the cookie
			// so the browser-side deadline slides with it.
			s.SetSessionCookie(w, r, sessionID)

			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireRole applies RequireAuthenticated semantics first (401 when
// anonymous), then rejects with a status-only 403 when the principal's role is
// not in the allowed set. No detail about the required roles is leaked.
func (s *Server) RequireRole(allowed ...principals.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sessionID := s.sessionIDFromRequest(r)
			principal, err := s.gateway.RequireRole(r.Context(), sessionID, allowed...)
			if err != nil {
				switch {
				case errors.Is(err, auth.ForbiddenErr):
					writeJSONError(w, http.StatusForbidden, "Forbidden")
				case errors.Is(err, auth.UnauthenticatedErr):
					writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				default:
					log.Err(err).Msg("session resolution failed")
					writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				}
				return
			}

			s.SetSessionCookie(w, r, sessionID)

			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
			next(w, r.WithContext(ctx))
		}
	}
}
