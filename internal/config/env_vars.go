package config

import (
	"os"
	"strconv"
	"time"
)

const (
	apiBaseURLVar     = "SHOP_API_URL"
	appNameVar        = "APP_NAME"
	dataFileVar       = "SHOP_DATA_FILE"
	redisAddrVar      = "SHOP_REDIS_ADDR"
	storageBackendVar = "SHOP_STORAGE"
	requestTimeoutVar = "SHOP_REQUEST_TIMEOUT"
	loginPathVar      = "SHOP_LOGIN_PATH"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8081")
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Online Shop")
}

// GetDataFile returns the path of the JSON file used by the file-backed
// key-value store.
func (EnvVars) GetDataFile() string {
	return GetEnv(dataFileVar, "./data/shop-state.json")
}

func (EnvVars) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "localhost:6379")
}

// GetStorageBackend selects the durable storage backend: "file", "redis" or
// "memory".
func (EnvVars) GetStorageBackend() string {
	return GetEnv(storageBackendVar, "file")
}

// GetRequestTimeout returns the fixed timeout applied to every outbound call.
// There is no cooperative cancellation once a call is issued; on expiry the
// call is classified as a network error.
func (EnvVars) GetRequestTimeout() time.Duration {
	raw := GetEnv(requestTimeoutVar, "15")
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		secs = 15
	}
	return time.Duration(secs) * time.Second
}

// GetLoginPath is the path of the login boundary the client redirects to on an
// unrecoverable session failure outside the cart surface.
func (EnvVars) GetLoginPath() string {
	return GetEnv(loginPathVar, "/login")
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
