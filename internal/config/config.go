// Package config provides environment-based bootstrap configuration for
// clipkeepd. Only the values needed before the store is open live here;
// once the database exists, retention_days and polling_interval_ms are
// authoritative from the store's config table (see internal/store).
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the bootstrap configuration for the daemon.
type Config struct {
	// DataDir is the per-user application-data directory holding
	// clipboard.db, encryption.key, instance.lock, and config.json.
	DataDir string

	// PollInterval is the Monitor's poll period. Seeded into the store's
	// config table on first run; later changes require editing the
	// config table directly (the UI owns that, not this bootstrap value).
	PollInterval time.Duration

	// RetentionDays is the seed value for the store's retention_days
	// config row.
	RetentionDays int

	// MaxBlobBytes bounds the size of a single plaintext payload the
	// classifier will process, guarding memory use on pathological
	// clipboard content.
	MaxBlobBytes int64

	// ShutdownTimeout bounds how long main waits for in-flight work to
	// finish during a graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the configuration used when no environment
// overrides are present.
func DefaultConfig() *Config {
	return &Config{
		DataDir:         defaultDataDir(),
		PollInterval:    500 * time.Millisecond,
		RetentionDays:   7,
		MaxBlobBytes:    64 * 1024 * 1024, // 64MB
		ShutdownTimeout: 5 * time.Second,
	}
}

// defaultDataDir resolves a platform-conventional per-user application
// data directory, falling back to a dotfile under the home directory if
// os.UserConfigDir is unavailable.
func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "clipkeepd")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".clipkeepd"
	}
	return filepath.Join(home, ".clipkeepd")
}

// LoadFromEnv loads configuration from environment variables, falling
// back to DefaultConfig for anything unset or malformed.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("CLIPKEEPD_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if v := os.Getenv("CLIPKEEPD_POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.PollInterval = time.Duration(ms) * time.Millisecond
		}
	}

	if v := os.Getenv("CLIPKEEPD_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.RetentionDays = days
		}
	}

	if v := os.Getenv("CLIPKEEPD_MAX_BLOB_BYTES"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil && size > 0 {
			cfg.MaxBlobBytes = size
		}
	}

	if v := os.Getenv("CLIPKEEPD_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}

	return cfg
}

// DBPath returns the path to the SQLite database file.
func (c *Config) DBPath() string { return filepath.Join(c.DataDir, "clipboard.db") }

// KeyPath returns the path to the encryption key file.
func (c *Config) KeyPath() string { return filepath.Join(c.DataDir, "encryption.key") }

// LockPath returns the path to the single-instance advisory lock file.
func (c *Config) LockPath() string { return filepath.Join(c.DataDir, "instance.lock") }
