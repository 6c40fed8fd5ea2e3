package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds process configuration. It is built once at startup and
// never mutated afterwards.
type Config struct {
	// Telegram bot token
	Token string

	// Seed admin installed at startup
	SeedAdminID int64

	// Path to the BoltDB database file
	DBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Address for the /metrics listener; empty disables it
	MetricsAddr string
}

// Load builds the configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TOKEN is required")
	}

	adminEnv := os.Getenv("ADMIN_ID")
	if adminEnv == "" {
		return nil, fmt.Errorf("ADMIN_ID is required")
	}
	adminID, err := strconv.ParseInt(adminEnv, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_ID must be a numeric Telegram id: %w", err)
	}

	dbPath := os.Getenv("ANONRELAY_DB_PATH")
	if dbPath == "" {
		dbPath, err = defaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	return &Config{
		Token:       token,
		SeedAdminID: adminID,
		DBPath:      dbPath,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", ""),
		MetricsAddr: getEnv("METRICS_ADDR", ""),
	}, nil
}

// defaultDBPath places the database under the XDG data directory, or the
// home directory fallback, so the bot works when run from read-only
// locations.
func defaultDBPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "anonrelay", "anonrelay.db"), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
