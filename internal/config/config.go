// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration. It is constructed once at process
// start and passed by reference into whichever component needs it; there is
// no ambient global configuration state.
type Config struct {
	DataDir            string // Base directory for the sqlite database (always absolute)
	ManualHoldingsPath string // YAML file with human-edited holdings, empty disables manual entries
	BrokerBridgeURL    string // Base URL of the broker position/quote bridge, empty disables live sync
	DiscoveryFeedURL   string // Base URL of the catalyst discovery feed, empty disables scheduled discovery
	DiscoverySchedule  string // cron spec for the discovery cycle
	ReconcileSchedule  string // cron spec for the reconciliation cycle
	UrgencyDays        int    // urgency window in days for the dashboard view
	LogLevel           string
	Port               int
	DevMode            bool
}

// Load reads configuration from environment variables. A .env file is loaded
// first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("CATALYST_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		ManualHoldingsPath: getEnv("MANUAL_HOLDINGS_FILE", ""),
		BrokerBridgeURL:    getEnv("BROKER_BRIDGE_URL", ""),
		DiscoveryFeedURL:   getEnv("DISCOVERY_FEED_URL", ""),
		DiscoverySchedule:  getEnv("DISCOVERY_SCHEDULE", "@every 15m"),
		ReconcileSchedule:  getEnv("RECONCILE_SCHEDULE", "@every 5m"),
		UrgencyDays:        getEnvAsInt("URGENCY_THRESHOLD_DAYS", 7),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnvAsInt("PORT", 8001),
		DevMode:            getEnvAsBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.UrgencyDays < 0 {
		return fmt.Errorf("urgency threshold must not be negative: %d", c.UrgencyDays)
	}
	return nil
}

// EnvSecrets resolves secrets from the process environment. It is the only
// secret source; credentials are never stored in files or code.
type EnvSecrets struct{}

// Get returns the named environment variable, ok=false when unset or empty.
func (EnvSecrets) Get(name string) (string, bool) {
	v := os.Getenv(name)
	return v, v != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
