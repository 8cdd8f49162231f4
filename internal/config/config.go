// Package config provides configuration for the status service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds the status service configuration.
type Config struct {
	// Server settings
	HTTPPort int
	RPCPort  int

	// Storage
	StoreBackend  string
	DatabaseURL   string
	// SessionScoped keeps runs private to the session given by callers.
	SessionScoped bool
	StatusTTL     time.Duration
	SweepInterval time.Duration

	// Watch
	WatchInterval time.Duration

	// Policy module path, empty for the built-in allow-all policy.
	PolicyFile string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:      getEnvInt("HTTP_PORT", 8080),
		RPCPort:       getEnvInt("RPC_PORT", 8082),
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		DatabaseURL:   getEnv("DATABASE_URL", "file:agentstatus.db?mode=rwc&_busy_timeout=5000&_txlock=immediate"),
		SessionScoped: getEnvBool("STORE_SESSION_SCOPED", false),
		StatusTTL:     time.Duration(getEnvInt("STATUS_TTL_MS", 3600000)) * time.Millisecond,
		SweepInterval: time.Duration(getEnvInt("SWEEP_INTERVAL_MS", 60000)) * time.Millisecond,
		WatchInterval: time.Duration(getEnvInt("WATCH_INTERVAL_MS", 500)) * time.Millisecond,
		PolicyFile:    getEnv("POLICY_FILE", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
