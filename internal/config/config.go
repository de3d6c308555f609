// Package config loads client configuration from the environment.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the runtime configuration for the ServiceBay client.
type Config struct {
	// BaseURL is the API root.
	BaseURL string

	// TokenPath is where the persisted token pair lives.
	TokenPath string

	// RefreshInterval is the proactive token refresh cadence.
	RefreshInterval time.Duration

	// PollInterval is the notification polling cadence.
	PollInterval time.Duration

	// HTTPTimeout bounds individual API calls.
	HTTPTimeout time.Duration
}

// Load reads configuration from SERVICEBAY_* environment variables,
// falling back to defaults that match a local backend.
func Load() Config {
	return Config{
		BaseURL:         getenv("SERVICEBAY_API_URL", "http://127.0.0.1:8000/api"),
		TokenPath:       getenv("SERVICEBAY_TOKEN_FILE", defaultTokenPath()),
		RefreshInterval: getenvDuration("SERVICEBAY_REFRESH_INTERVAL", 4*time.Minute),
		PollInterval:    getenvDuration("SERVICEBAY_POLL_INTERVAL", 30*time.Second),
		HTTPTimeout:     getenvDuration("SERVICEBAY_HTTP_TIMEOUT", 5*time.Second),
	}
}

func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "servicebay", "tokens.json")
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
