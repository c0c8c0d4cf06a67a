package config

type Config interface {
	EnvConfig
	SecurityConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDatabaseURL() string
	GetAdminUsername() string
	GetAdminPassword() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Security
	Cors
}

func New() Config {
	return mainConfig{}
}
