package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar   = "PORT"
	appNameVar   = "APP_NAME"
	databaseVar  = "DATABASE_URL"
	adminUserVar = "ADMIN_USERNAME"
	adminPassVar = "ADMIN_PASSWORD"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Care Auth Server")
}

// GetDatabaseURL returns the PostgreSQL DSN for the user directory. When
// empty, the server falls back to the in-memory directory (development only).
func (EnvVars) GetDatabaseURL() string {
	return GetEnv(databaseVar, "")
}

func (EnvVars) GetAdminUsername() string {
	return GetEnv(adminUserVar, "admin")
}

// GetAdminPassword returns the bootstrap super admin password. When empty, a
// random password is generated on first start and printed once.
func (EnvVars) GetAdminPassword() string {
	return GetEnv(adminPassVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
