package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate unsets every variable Load reads for the duration of the test.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "LOG_FORMAT",
		"DATABASE_DRIVER", "DATABASE_URL", "SQLITE_PATH", "DATABASE_MAX_CONNS",
		"REDIS_URL", "PROFILE_CACHE_TTL",
		"CALENDAR_MERGE_ENABLED", "PROVIDER_TIMEOUT",
		"BREAKER_ENABLED", "BREAKER_MAX_REQUESTS", "BREAKER_INTERVAL", "BREAKER_TIMEOUT", "BREAKER_FAILURE_THRESHOLD",
		"ENCRYPTION_KEY",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_AUTH_URL", "GOOGLE_TOKEN_URL", "GOOGLE_REDIRECT_URL", "GOOGLE_SCOPES",
		"MICROSOFT_CLIENT_ID", "MICROSOFT_CLIENT_SECRET", "MICROSOFT_AUTH_URL", "MICROSOFT_TOKEN_URL", "MICROSOFT_REDIRECT_URL", "MICROSOFT_SCOPES",
		"SLOT_DURATION", "SLOT_BUFFER", "MINIMUM_NOTICE_DAYS", "AVAILABILITY_WINDOW_DAYS", "MAX_BOOKINGS_PER_DAY",
		"MCP_ADDR", "MCP_AUTH_TOKEN", "HEALTH_ADDR",
	} {
		if value, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, value) })
			os.Unsetenv(key)
		}
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 10, cfg.DatabaseMaxConns)
	assert.False(t, cfg.CacheEnabled())
	assert.True(t, cfg.CalendarMergeEnabled)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	assert.True(t, cfg.BreakerEnabled)
	assert.Equal(t, 5, cfg.BreakerFailureThreshold)
	assert.Equal(t, 30*time.Minute, cfg.SlotDuration)
	assert.Zero(t, cfg.MaxBookingsPerDay)
	assert.False(t, cfg.GoogleOAuth.Configured())
	assert.Equal(t, []string{"https://www.googleapis.com/auth/calendar.readonly"}, cfg.GoogleOAuth.Scopes)
	assert.Equal(t, []string{"offline_access", "Calendars.Read"}, cfg.MicrosoftOAuth.Scopes)
	assert.Equal(t, "127.0.0.1:8082", cfg.MCPAddr)
	assert.Equal(t, "127.0.0.1:8081", cfg.HealthAddr)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_WithCustomEnvVars(t *testing.T) {
	isolate(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://freebusy@localhost/freebusy")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("PROFILE_CACHE_TTL", "90s")
	t.Setenv("CALENDAR_MERGE_ENABLED", "false")
	t.Setenv("PROVIDER_TIMEOUT", "3s")
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "2")
	t.Setenv("SLOT_BUFFER", "10m")
	t.Setenv("MINIMUM_NOTICE_DAYS", "2")
	t.Setenv("AVAILABILITY_WINDOW_DAYS", "14")
	t.Setenv("MAX_BOOKINGS_PER_DAY", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://freebusy@localhost/freebusy", cfg.DatabaseURL)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, 90*time.Second, cfg.ProfileCacheTTL)
	assert.False(t, cfg.CalendarMergeEnabled)
	assert.Equal(t, 3*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 2, cfg.BreakerFailureThreshold)
	assert.Equal(t, 10*time.Minute, cfg.SlotBuffer)
	assert.Equal(t, 2, cfg.MinimumNoticeDays)
	assert.Equal(t, 14, cfg.AvailabilityWindowDays)
	assert.Equal(t, 3, cfg.MaxBookingsPerDay)
}

func TestLoad_OAuthRequiresEncryptionKey(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENCRYPTION_KEY")

	t.Setenv("ENCRYPTION_KEY", "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.GoogleOAuth.Configured())
	assert.False(t, cfg.MicrosoftOAuth.Configured())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ProviderTimeout:         time.Second,
			BreakerEnabled:          true,
			BreakerFailureThreshold: 1,
			SlotDuration:            time.Minute,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "mysql" }, "DATABASE_DRIVER"},
		{"zero timeout", func(c *Config) { c.ProviderTimeout = 0 }, "PROVIDER_TIMEOUT"},
		{"zero threshold", func(c *Config) { c.BreakerFailureThreshold = 0 }, "BREAKER_FAILURE_THRESHOLD"},
		{"zero slot", func(c *Config) { c.SlotDuration = 0 }, "SLOT_DURATION"},
		{"negative notice", func(c *Config) { c.MinimumNoticeDays = -1 }, "MINIMUM_NOTICE_DAYS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}

	c := valid()
	c.BreakerEnabled = false
	c.BreakerFailureThreshold = 0
	assert.NoError(t, c.Validate())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("FREEBUSY_TEST_INT", "nope")
	assert.Equal(t, 7, getIntEnv("FREEBUSY_TEST_INT", 7))

	t.Setenv("FREEBUSY_TEST_DURATION", "1h30m")
	assert.Equal(t, 90*time.Minute, getDurationEnv("FREEBUSY_TEST_DURATION", 0))

	t.Setenv("FREEBUSY_TEST_BOOL", "maybe")
	assert.True(t, getBoolEnv("FREEBUSY_TEST_BOOL", true))

	t.Setenv("FREEBUSY_TEST_LIST", " a, ,b,")
	assert.Equal(t, []string{"a", "b"}, getListEnv("FREEBUSY_TEST_LIST", ""))
	assert.Nil(t, getListEnv("FREEBUSY_TEST_UNSET_LIST", ""))
}
