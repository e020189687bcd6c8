package config

import "time"

type Config interface {
	EnvConfig
}

type EnvConfig interface {
	GetAPIBaseURL() string
	GetAppName() string
	GetDataFile() string
	GetRedisAddr() string
	GetStorageBackend() string
	GetRequestTimeout() time.Duration
	GetLoginPath() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
