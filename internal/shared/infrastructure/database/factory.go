package database

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds database configuration.
type Config struct {
	Driver Driver

	// URL is the PostgreSQL connection string, or a SQLite path.
	URL string

	// SQLitePath overrides URL for SQLite. Defaults to ~/.freebusy/data.db.
	SQLitePath string

	// MaxConns caps the PostgreSQL pool.
	MaxConns int
}

// ResolvedDriver returns the configured driver, detecting it from URL when unset.
func (c Config) ResolvedDriver() Driver {
	return ParseDriver(string(c.Driver), c.URL)
}

// ResolvedSQLitePath returns the SQLite file to open.
func (c Config) ResolvedSQLitePath() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	if c.URL != "" {
		return strings.TrimPrefix(c.URL, "sqlite://")
	}
	return DefaultSQLitePath()
}

// DefaultSQLitePath returns the default SQLite database path.
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".freebusy", "data.db")
}

// EnsureDirectory creates the parent directory for a file path if it doesn't exist.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
