// Package config loads freebusy settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// OAuthClient holds one provider's OAuth client registration.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// Configured reports whether the client can refresh tokens.
func (o OAuthClient) Configured() bool {
	return o.ClientID != "" && o.ClientSecret != "" && o.TokenURL != ""
}

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string

	// Database. An empty DatabaseURL selects SQLite at SQLitePath.
	DatabaseDriver   string
	DatabaseURL      string
	SQLitePath       string
	DatabaseMaxConns int

	// Profile cache. Disabled when RedisURL is empty.
	RedisURL        string
	ProfileCacheTTL time.Duration

	// Calendar
	CalendarMergeEnabled    bool
	ProviderTimeout         time.Duration
	BreakerEnabled          bool
	BreakerMaxRequests      int
	BreakerInterval         time.Duration
	BreakerTimeout          time.Duration
	BreakerFailureThreshold int

	// Credentials
	EncryptionKey  string
	GoogleOAuth    OAuthClient
	MicrosoftOAuth OAuthClient

	// Booking defaults, overridable per request.
	SlotDuration           time.Duration
	SlotBuffer             time.Duration
	MinimumNoticeDays      int
	AvailabilityWindowDays int
	MaxBookingsPerDay      int

	// MCP
	MCPAddr      string
	MCPAuthToken string

	HealthAddr string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DatabaseDriver:   getEnv("DATABASE_DRIVER", ""),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("SQLITE_PATH", ""),
		DatabaseMaxConns: getIntEnv("DATABASE_MAX_CONNS", 10),

		RedisURL:        getEnv("REDIS_URL", ""),
		ProfileCacheTTL: getDurationEnv("PROFILE_CACHE_TTL", 5*time.Minute),

		CalendarMergeEnabled:    getBoolEnv("CALENDAR_MERGE_ENABLED", true),
		ProviderTimeout:         getDurationEnv("PROVIDER_TIMEOUT", 10*time.Second),
		BreakerEnabled:          getBoolEnv("BREAKER_ENABLED", true),
		BreakerMaxRequests:      getIntEnv("BREAKER_MAX_REQUESTS", 1),
		BreakerInterval:         getDurationEnv("BREAKER_INTERVAL", time.Minute),
		BreakerTimeout:          getDurationEnv("BREAKER_TIMEOUT", 30*time.Second),
		BreakerFailureThreshold: getIntEnv("BREAKER_FAILURE_THRESHOLD", 5),

		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		GoogleOAuth: OAuthClient{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			AuthURL:      getEnv("GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/auth"),
			TokenURL:     getEnv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
			Scopes:       getListEnv("GOOGLE_SCOPES", "https://www.googleapis.com/auth/calendar.readonly"),
		},
		MicrosoftOAuth: OAuthClient{
			ClientID:     getEnv("MICROSOFT_CLIENT_ID", ""),
			ClientSecret: getEnv("MICROSOFT_CLIENT_SECRET", ""),
			AuthURL:      getEnv("MICROSOFT_AUTH_URL", "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"),
			TokenURL:     getEnv("MICROSOFT_TOKEN_URL", "https://login.microsoftonline.com/common/oauth2/v2.0/token"),
			RedirectURL:  getEnv("MICROSOFT_REDIRECT_URL", ""),
			Scopes:       getListEnv("MICROSOFT_SCOPES", "offline_access,Calendars.Read"),
		},

		SlotDuration:           getDurationEnv("SLOT_DURATION", 30*time.Minute),
		SlotBuffer:             getDurationEnv("SLOT_BUFFER", 0),
		MinimumNoticeDays:      getIntEnv("MINIMUM_NOTICE_DAYS", 0),
		AvailabilityWindowDays: getIntEnv("AVAILABILITY_WINDOW_DAYS", 0),
		MaxBookingsPerDay:      getIntEnv("MAX_BOOKINGS_PER_DAY", 0),

		MCPAddr:      getEnv("MCP_ADDR", "127.0.0.1:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),

		HealthAddr: getEnv("HEALTH_ADDR", "127.0.0.1:8081"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.DatabaseDriver) {
	case "", "auto", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", c.DatabaseDriver))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("PROVIDER_TIMEOUT must be positive"))
	}
	if c.BreakerEnabled && c.BreakerFailureThreshold <= 0 {
		errs = append(errs, errors.New("BREAKER_FAILURE_THRESHOLD must be positive"))
	}
	if c.SlotDuration <= 0 {
		errs = append(errs, errors.New("SLOT_DURATION must be positive"))
	}
	if c.SlotBuffer < 0 || c.MinimumNoticeDays < 0 || c.AvailabilityWindowDays < 0 {
		errs = append(errs, errors.New("SLOT_BUFFER, MINIMUM_NOTICE_DAYS and AVAILABILITY_WINDOW_DAYS cannot be negative"))
	}
	if (c.GoogleOAuth.Configured() || c.MicrosoftOAuth.Configured()) && c.EncryptionKey == "" {
		errs = append(errs, errors.New("ENCRYPTION_KEY is required when an OAuth client is configured"))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// CacheEnabled reports whether profiles are cached in Redis.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated value, dropping blanks.
func getListEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
