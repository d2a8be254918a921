package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDriver(t *testing.T) {
	tests := map[string]Driver{
		"":                             DriverSQLite,
		"postgres://u:p@localhost/fb":  DriverPostgres,
		"postgresql://localhost/fb":    DriverPostgres,
		"sqlite:///var/lib/fb.sqlite":  DriverSQLite,
		"file:/tmp/fb":                 DriverSQLite,
		"/tmp/data.db":                 DriverSQLite,
		"/tmp/data.sqlite3":            DriverSQLite,
		"mysql://user@localhost/other": DriverPostgres,
	}

	for url, want := range tests {
		t.Run(url, func(t *testing.T) {
			assert.Equal(t, want, DetectDriver(url))
		})
	}
}

func TestParseDriver(t *testing.T) {
	assert.Equal(t, DriverPostgres, ParseDriver("auto", "postgres://localhost/fb"))
	assert.Equal(t, DriverSQLite, ParseDriver("", ""))
	assert.Equal(t, DriverSQLite, ParseDriver(" SQLite ", "postgres://localhost/fb"))
	assert.False(t, ParseDriver("mysql", "").IsValid())
}

func TestConfig_ResolvedSQLitePath(t *testing.T) {
	assert.Equal(t, "/tmp/x.db", Config{SQLitePath: "/tmp/x.db", URL: "/tmp/y.db"}.ResolvedSQLitePath())
	assert.Equal(t, "/var/lib/fb.db", Config{URL: "sqlite:///var/lib/fb.db"}.ResolvedSQLitePath())
	assert.Equal(t, DefaultSQLitePath(), Config{}.ResolvedSQLitePath())
}

func TestDriver_IsValid(t *testing.T) {
	assert.True(t, DriverPostgres.IsValid())
	assert.True(t, DriverSQLite.IsValid())
	assert.False(t, Driver("").IsValid())
}
