package config

import (
	"strconv"
	"time"
)

type SecurityConfig interface {
	GetSessionTTL() time.Duration
	GetSessionCookieName() string
	GetEncryptionSecret() string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetSessionTTL returns the sliding-expiration window. Each authenticated
// request pushes the session deadline out by this much.
func (Security) GetSessionTTL() time.Duration {
	if minutes, err := strconv.Atoi(GetEnv("SESSION_TTL_MINUTES", "")); err == nil && minutes > 0 {
		return time.Duration(minutes) * time.Minute
	}
	return 30 * time.Minute
}

func (Security) GetSessionCookieName() string {
	return GetEnv("SESSION_COOKIE_NAME", "care_session")
}

// GetEncryptionSecret returns the secret the process-wide encryption key is
// derived from. Never logged.
func (Security) GetEncryptionSecret() string {
	return GetEnv("ENCRYPTION_SECRET", "dev-only-encryption-secret")
}
