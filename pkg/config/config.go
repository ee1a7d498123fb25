package config

import (
	"os"
	"strconv"

	pkgerrors "assetgraph/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// Config holds all configuration values
type Config struct {
	Environment string `validate:"oneof=development production test"`
	LogLevel    string `validate:"oneof=debug info warn error"`

	// PropagateBaseChanges controls whether base-side edits are replayed
	// into derived documents as they happen
	PropagateBaseChanges bool

	// WatchDebounceMS is the settle window for base file watch mode
	WatchDebounceMS int `validate:"gte=0,lte=5000"`
}

// New creates a new configuration from environment variables
func New() (*Config, error) {
	cfg := &Config{
		Environment:          getEnv("ENVIRONMENT", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		PropagateBaseChanges: getEnvBool("PROPAGATE_BASE_CHANGES", true),
		WatchDebounceMS:      getEnvInt("WATCH_DEBOUNCE_MS", 100),
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, pkgerrors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
