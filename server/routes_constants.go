package server

const (
	RouteHealth           = "/api/health"
	RouteRegister         = "/api/register"
	RouteLogin            = "/api/login"
	RouteLogout           = "/api/logout"
	RouteUser             = "/api/user"
	RouteUserPassword     = "/api/user/password"
	RouteValidatePassword = "/api/password/validate"
	RouteAdminUsers       = "/api/admin/users"
)
