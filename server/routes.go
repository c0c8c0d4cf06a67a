package server

import "github.com/carelink/care-auth-server/principals"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// CORS preflight for the whole API surface. The CORS middleware answers
	// OPTIONS requests itself; the handler is only reached without an Origin.
	s.RegisterRouteFunc("OPTIONS /api/", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	// Account and session lifecycle
	s.RegisterRouteFunc("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteValidatePassword, ChainMiddleware(s.ValidatePasswordHandler(), s.APIMiddleware()...))

	// Authenticated surface
	s.RegisterRouteFunc("GET "+RouteUser, ChainMiddleware(s.UserHandler(), s.APIMiddleware(s.RequireAuthenticated())...))
	s.RegisterRouteFunc("POST "+RouteUserPassword, ChainMiddleware(s.ChangePasswordHandler(), s.APIMiddleware(s.RequireAuthenticated())...))

	// Role-gated administrative surface
	s.RegisterRouteFunc("GET "+RouteAdminUsers, ChainMiddleware(s.AdminUsersHandler(), s.APIMiddleware(s.RequireRole(principals.RoleAdmin, principals.RoleSuperAdmin))...))
}
