package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	availabilityCommands "github.com/felixgeelhaar/freebusy/internal/availability/application/commands"
	availabilityQueries "github.com/felixgeelhaar/freebusy/internal/availability/application/queries"
	availabilityServices "github.com/felixgeelhaar/freebusy/internal/availability/application/services"
	availabilityDomain "github.com/felixgeelhaar/freebusy/internal/availability/domain"
	availabilityPersistence "github.com/felixgeelhaar/freebusy/internal/availability/infrastructure/persistence"
	calendarApp "github.com/felixgeelhaar/freebusy/internal/calendar/application"
	calendarCommands "github.com/felixgeelhaar/freebusy/internal/calendar/application/commands"
	"github.com/felixgeelhaar/freebusy/internal/calendar/application/credentials"
	calendarDomain "github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	calendarSetup "github.com/felixgeelhaar/freebusy/internal/calendar/setup"
	"github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/convert"
	sharedCrypto "github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/database/postgres"
	"github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/freebusy/pkg/config"
	"github.com/felixgeelhaar/freebusy/pkg/observability"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Database
	DBDriver database.Driver
	SQLDB    *sql.DB
	Pool     *pgxpool.Pool
	Repos    *RepositoryFactory

	// Redis
	RedisClient *redis.Client

	// Repositories
	AccountRepo    calendarDomain.AccountRepository
	CredentialRepo credentials.Repository
	ProfileRepo    ProfileStore
	BookingRepo    BookingStore
	TimeOffRepo    TimeOffStore
	// Profiles is the read path, cached when Redis is configured.
	Profiles     availabilityDomain.ProfileRepository
	ProfileCache *availabilityPersistence.CachedProfileRepository

	// Calendar
	GoogleCredentials    *credentials.Service
	MicrosoftCredentials *credentials.Service
	CalDAVCredentials    *credentials.Service
	ProviderRegistry     *calendarApp.ProviderRegistry
	Breakers             *calendarApp.BreakerSet
	ConnectAccount       *calendarCommands.ConnectAccountHandler
	DisableAccount       *calendarCommands.DisableAccountHandler

	// Availability
	CalendarFetcher     *availabilityServices.CalendarFetcher
	AvailabilityService *availabilityServices.AvailabilityService
	FindMutualSlots     *availabilityQueries.FindMutualSlotsHandler
	GetFreeSlots        *availabilityQueries.GetFreeSlotsHandler
	SetProfile          *availabilityCommands.SetProfileHandler
	BookSlot            *availabilityCommands.BookSlotHandler
	CancelBooking       *availabilityCommands.CancelBookingHandler
	AddTimeOff          *availabilityCommands.AddTimeOffHandler
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	if err := c.openDatabase(ctx); err != nil {
		return nil, err
	}
	if err := c.createRepositories(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.connectRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.createCalendar(); err != nil {
		c.Close()
		return nil, err
	}
	c.createAvailability()
	c.registerHealthChecks()

	logger.Info("container ready",
		"driver", c.DBDriver,
		"profile_cache", c.ProfileCache != nil,
		"calendar_merge", cfg.CalendarMergeEnabled,
		"providers", c.ProviderRegistry.SupportedProviders(),
	)
	return c, nil
}

func (c *Container) openDatabase(ctx context.Context) error {
	dbConfig := database.Config{
		Driver:     database.Driver(c.Config.DatabaseDriver),
		URL:        c.Config.DatabaseURL,
		SQLitePath: c.Config.SQLitePath,
		MaxConns:   c.Config.DatabaseMaxConns,
	}
	c.DBDriver = dbConfig.ResolvedDriver()

	switch c.DBDriver {
	case database.DriverPostgres:
		pool, err := postgres.Open(ctx, dbConfig.URL, dbConfig.MaxConns)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return err
		}
		c.Pool = pool
		c.Repos = NewPostgresRepositoryFactory(pool)

	case database.DriverSQLite:
		path := dbConfig.ResolvedSQLitePath()
		db, err := sqlite.Open(ctx, path)
		if err != nil {
			return err
		}
		if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
			db.Close()
			return err
		}
		c.SQLDB = db
		c.Repos = NewSQLiteRepositoryFactory(db)

	default:
		return fmt.Errorf("unsupported driver: %s", c.DBDriver)
	}

	c.Logger.Info("connected to database", "driver", c.DBDriver)
	return nil
}

func (c *Container) createRepositories() error {
	var err error
	if c.AccountRepo, err = c.Repos.AccountRepository(); err != nil {
		return err
	}
	if c.CredentialRepo, err = c.Repos.CredentialRepository(); err != nil {
		return err
	}
	if c.ProfileRepo, err = c.Repos.ProfileRepository(); err != nil {
		return err
	}
	if c.BookingRepo, err = c.Repos.BookingRepository(); err != nil {
		return err
	}
	if c.TimeOffRepo, err = c.Repos.TimeOffRepository(); err != nil {
		return err
	}
	c.Profiles = c.ProfileRepo
	return nil
}

// connectRedis enables the profile cache. Redis is optional in development.
func (c *Container) connectRedis(ctx context.Context) error {
	if !c.Config.CacheEnabled() {
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, profile cache disabled", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, profile cache disabled", "error", err)
		return nil
	}

	c.RedisClient = client
	c.ProfileCache = availabilityPersistence.NewCachedProfileRepository(c.ProfileRepo, client, c.Config.ProfileCacheTTL, c.Metrics, c.Logger)
	c.Profiles = c.ProfileCache
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) createCalendar() error {
	cfg := c.Config

	c.Breakers = calendarApp.NewBreakerSet(calendarApp.BreakerConfig{
		Enabled:          cfg.BreakerEnabled,
		MaxRequests:      convert.IntToUint32Clamped(cfg.BreakerMaxRequests),
		Interval:         cfg.BreakerInterval,
		Timeout:          cfg.BreakerTimeout,
		FailureThreshold: convert.IntToUint32Clamped(cfg.BreakerFailureThreshold),
	}, c.Logger)

	providerConfig := calendarSetup.ProviderConfig{
		Breakers: c.Breakers,
		Timeout:  cfg.ProviderTimeout,
		Logger:   c.Logger,
	}
	tokenStores := make(map[calendarDomain.ProviderType]calendarCommands.TokenStore)
	var passwords calendarCommands.PasswordStore

	// Without an encryption key no credentials can be read, so no provider is
	// registered and every linked account fails as provider unavailable.
	if cfg.EncryptionKey == "" {
		c.Logger.Warn("ENCRYPTION_KEY not set; calendar providers disabled")
	} else {
		sealer, err := sharedCrypto.NewAESGCMFromBase64Key(cfg.EncryptionKey)
		if err != nil {
			return fmt.Errorf("invalid encryption key: %w", err)
		}

		if c.CalDAVCredentials, err = credentials.NewService(nil, c.CredentialRepo, sealer); err != nil {
			return err
		}
		providerConfig.CalDAVCreds = c.CalDAVCredentials
		passwords = c.CalDAVCredentials

		if cfg.GoogleOAuth.Configured() {
			if c.GoogleCredentials, err = credentials.NewService(oauthConfig(cfg.GoogleOAuth), c.CredentialRepo, sealer); err != nil {
				return fmt.Errorf("google credentials: %w", err)
			}
			providerConfig.GoogleOAuth = c.GoogleCredentials
			tokenStores[calendarDomain.ProviderGoogle] = c.GoogleCredentials
		}
		if cfg.MicrosoftOAuth.Configured() {
			if c.MicrosoftCredentials, err = credentials.NewService(oauthConfig(cfg.MicrosoftOAuth), c.CredentialRepo, sealer); err != nil {
				return fmt.Errorf("microsoft credentials: %w", err)
			}
			providerConfig.MicrosoftOAuth = c.MicrosoftCredentials
			tokenStores[calendarDomain.ProviderMicrosoft] = c.MicrosoftCredentials
		}
	}

	c.ProviderRegistry = calendarApp.NewProviderRegistry()
	calendarSetup.RegisterProviders(c.ProviderRegistry, providerConfig)

	c.ConnectAccount = calendarCommands.NewConnectAccountHandler(c.AccountRepo, tokenStores, passwords, c.Logger)
	c.DisableAccount = calendarCommands.NewDisableAccountHandler(c.AccountRepo)
	return nil
}

func (c *Container) createAvailability() {
	c.CalendarFetcher = availabilityServices.NewCalendarFetcher(
		c.Config.CalendarMergeEnabled,
		c.Profiles,
		c.AccountRepo,
		c.ProviderRegistry,
		c.Metrics,
		c.Logger,
	)
	c.AvailabilityService = availabilityServices.NewAvailabilityService(c.CalendarFetcher, c.Profiles, c.BookingRepo, c.Metrics, c.Logger)

	c.FindMutualSlots = availabilityQueries.NewFindMutualSlotsHandler(c.AvailabilityService, c.Profiles, c.BookingRepo, c.Metrics).
		WithTimeOff(c.TimeOffRepo)
	c.GetFreeSlots = availabilityQueries.NewGetFreeSlotsHandler(c.AvailabilityService)

	var invalidator availabilityCommands.ProfileInvalidator
	if c.ProfileCache != nil {
		invalidator = c.ProfileCache
	}
	c.SetProfile = availabilityCommands.NewSetProfileHandler(c.ProfileRepo, invalidator, c.Logger)
	c.BookSlot = availabilityCommands.NewBookSlotHandler(c.AvailabilityService, c.BookingRepo, c.Logger)
	c.CancelBooking = availabilityCommands.NewCancelBookingHandler(c.BookingRepo)
	c.AddTimeOff = availabilityCommands.NewAddTimeOffHandler(c.TimeOffRepo)
}

func (c *Container) registerHealthChecks() {
	c.Health.Register("database", observability.DatabaseHealthChecker(c.Repos.Ping))
	if c.RedisClient != nil {
		client := c.RedisClient
		c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
	}
	c.Health.Register("calendar_breakers", observability.CircuitHealthChecker(c.Breakers.States))
}

// BookingPolicy returns the configured booking defaults.
func (c *Container) BookingPolicy() availabilityDomain.BookingPolicy {
	return availabilityDomain.BookingPolicy{
		MinimumNoticeDays:      c.Config.MinimumNoticeDays,
		AvailabilityWindowDays: c.Config.AvailabilityWindowDays,
		MaxBookingsPerDay:      c.Config.MaxBookingsPerDay,
	}
}

// Close releases all resources.
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("failed to close Redis client", "error", err)
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.SQLDB != nil {
		if err := c.SQLDB.Close(); err != nil {
			c.Logger.Warn("failed to close database", "error", err)
		}
	}
}

func oauthConfig(client config.OAuthClient) *credentials.OAuthConfig {
	return &credentials.OAuthConfig{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		AuthURL:      client.AuthURL,
		TokenURL:     client.TokenURL,
		RedirectURL:  client.RedirectURL,
		Scopes:       client.Scopes,
	}
}
