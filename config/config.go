// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the settings read from the environment.
type Config struct {
	Environment string
	LogLevel    slog.Level
	// LogFile receives log output. Empty means stderr for the plain CLI and
	// no logging for the TUI, which owns the terminal.
	LogFile string
	// SaveDir holds file-backed save slots.
	SaveDir string
	// RedisURL selects the Redis save store when set.
	RedisURL string
	// Seed fixes the random seed. Zero means seed from the clock.
	Seed int64
}

// Load reads the configuration. Only a malformed DIALOGUE_SEED is an error.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LogFile:     getEnv("DIALOGUE_LOG_FILE", ""),
		SaveDir:     getEnv("DIALOGUE_SAVE_DIR", defaultSaveDir()),
		RedisURL:    getEnv("REDIS_URL", ""),
	}
	if s := getEnv("DIALOGUE_SEED", ""); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: DIALOGUE_SEED: %w", err)
		}
		cfg.Seed = seed
	}
	return cfg, nil
}

func defaultSaveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dialoguecore/saves"
	}
	return filepath.Join(home, ".dialoguecore", "saves")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
