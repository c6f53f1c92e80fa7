// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const appName = "agenda"

// Config holds the application configuration.
type Config struct {
	DatabasePath  string
	LogLevel      string
	CheckInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir(), appName+".db")
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	interval := 5 * time.Minute
	if raw := os.Getenv("CHECK_INTERVAL_MINUTES"); raw != "" {
		mins, err := strconv.Atoi(raw)
		if err != nil || mins < 1 {
			return nil, fmt.Errorf("invalid CHECK_INTERVAL_MINUTES %q", raw)
		}
		interval = time.Duration(mins) * time.Minute
	}

	return &Config{
		DatabasePath:  dbPath,
		LogLevel:      logLevel,
		CheckInterval: interval,
	}, nil
}

// dataDir resolves the XDG data directory for the application.
func dataDir() string {
	if base := os.Getenv("XDG_DATA_HOME"); base != "" {
		return filepath.Join(base, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return appName
	}
	return filepath.Join(home, ".local", "share", appName)
}
