package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/carelink/care-auth-server/auth"
	"github.com/carelink/care-auth-server/credentials"
	"github.com/carelink/care-auth-server/principals"
)

// genericLoginFailure is the single message for every failed login. Unknown
// username and wrong password produce identical responses.
const genericLoginFailure = "Invalid credentials"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	TenantID *int64 `json:"tenant_id"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PreflightHandler backs the OPTIONS route. Same-origin OPTIONS requests land
// here; cross-origin ones are answered by the CORS middleware.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

// HealthHandler reports liveness
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// RegisterHandler creates an account with the default role and logs it in.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		principal, err := s.gateway.Register(r.Context(), req.Username, req.Password, req.Name, req.TenantID)
		if err != nil {
			switch {
			case errors.Is(err, auth.UsernameTakenErr):
				writeJSONError(w, http.StatusBadRequest, "Username already exists")
			case errors.Is(err, auth.EmptyPasswordErr):
				writeJSONError(w, http.StatusBadRequest, "Password is required")
			default:
				log.Err(err).Msg("registration failed")
				writeJSONError(w, http.StatusInternalServerError, "Registration failed")
			}
			return
		}

		// Establish the session straight away: registration doubles as the
		// first login.
		_, sessionID, err := s.gateway.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			log.Err(err).Msg("post-registration login failed")
			writeJSONError(w, http.StatusInternalServerError, "Registration failed")
			return
		}
		s.SetSessionCookie(w, r, sessionID)

		writeJSON(w, http.StatusCreated, principal)
	}
}

// LoginHandler authenticates the submitted credentials and establishes a
// session.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		principal, sessionID, err := s.gateway.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.InvalidCredentialsErr) {
				writeJSONError(w, http.StatusUnauthorized, genericLoginFailure)
				return
			}
			log.Err(err).Msg("login failed")
			writeJSONError(w, http.StatusInternalServerError, "Login failed")
			return
		}

		s.SetSessionCookie(w, r, sessionID)
		writeJSON(w, http.StatusOK, principal)
	}
}

// LogoutHandler destroys the session. Always succeeds, with or without a
// session to destroy.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.gateway.Logout(r.Context(), s.sessionIDFromRequest(r)); err != nil {
			log.Err(err).Msg("logout failed")
		}
		s.ClearSessionCookie(w, r)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	}
}

// UserHandler returns the current principal. Guarded by RequireAuthenticated.
func (s *Server) UserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, PrincipalFromContext(r.Context()))
	}
}

// ChangePasswordHandler replaces the caller's credential after verifying the
// current password. Guarded by RequireAuthenticated.
func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		principal := PrincipalFromContext(r.Context())
		err := s.gateway.ChangePassword(r.Context(), principal.ID, req.CurrentPassword, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, auth.InvalidCredentialsErr):
				writeJSONError(w, http.StatusUnauthorized, genericLoginFailure)
			case errors.Is(err, auth.EmptyPasswordErr):
				writeJSONError(w, http.StatusBadRequest, "Password is required")
			default:
				log.Err(err).Msg("password change failed")
				writeJSONError(w, http.StatusInternalServerError, "Password change failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
	}
}

// ValidatePasswordHandler checks a candidate password against the strength
// policy without creating anything.
func (s *Server) ValidatePasswordHandler() http.HandlerFunc {
	type validateRequest struct {
		Password string `json:"password"`
	}
	type validateResponse struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req validateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := credentials.ValidatePasswordStrength(req.Password); err != nil {
			writeJSON(w, http.StatusOK, validateResponse{Valid: false, Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, validateResponse{Valid: true})
	}
}

// AdminUsersHandler lists directory accounts as hash-free principals. Guarded
// by RequireRole(admin, superadmin).
func (s *Server) AdminUsersHandler() http.HandlerFunc {
	const defaultLimit = 50

	return func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset < 0 {
			offset = 0
		}
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 {
			limit = defaultLimit
		}

		records, err := s.directory.List(r.Context(), offset, limit)
		if err != nil {
			log.Err(err).Msg("user listing failed")
			writeJSONError(w, http.StatusInternalServerError, "Listing failed")
			return
		}

		users := make([]*principals.Principal, 0, len(records))
		for _, record := range records {
			users = append(users, record.Principal())
		}
		writeJSON(w, http.StatusOK, users)
	}
}
