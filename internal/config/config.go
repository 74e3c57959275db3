// Package config handles runtime configuration and environment loading.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// DefaultRowLimit caps result sets when a query description gives none.
const DefaultRowLimit = 50000

// Config holds runtime settings for the CLI and the executor.
type Config struct {
	LogLevel string // debug, info, warn, error (default: info)
	Driver   string // database/sql driver name (default: duckdb)
	DSN      string // data source name passed to sql.Open
	RowLimit int    // fallback row limit for query descriptions without one
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadFromEnv loads configuration from environment variables. Every field
// has a usable default; nothing is required.
func LoadFromEnv() *Config {
	cfg := &Config{
		LogLevel: os.Getenv("CARAVEL_LOG_LEVEL"),
		Driver:   os.Getenv("CARAVEL_DB_DRIVER"),
		DSN:      os.Getenv("CARAVEL_DB_DSN"),
		RowLimit: DefaultRowLimit,
	}
	if cfg.Driver == "" {
		cfg.Driver = "duckdb"
	}
	if v := os.Getenv("CARAVEL_ROW_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RowLimit = n
		}
	}
	return cfg
}
