package setup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/calendar/application"
	"github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	"github.com/felixgeelhaar/freebusy/internal/calendar/infrastructure/caldav"
	googleCal "github.com/felixgeelhaar/freebusy/internal/calendar/infrastructure/google"
	microsoftCal "github.com/felixgeelhaar/freebusy/internal/calendar/infrastructure/microsoft"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// OAuthTokenProvider provides OAuth2 tokens for a calendar account.
type OAuthTokenProvider interface {
	TokenSource(ctx context.Context, accountID uuid.UUID) (oauth2.TokenSource, error)
}

// CalDAVCredentialProvider provides basic-auth credentials for a calendar account.
type CalDAVCredentialProvider interface {
	Credentials(ctx context.Context, accountID uuid.UUID) (username, password string, err error)
}

// ProviderConfig holds configuration for creating provider factories.
type ProviderConfig struct {
	GoogleOAuth    OAuthTokenProvider
	MicrosoftOAuth OAuthTokenProvider
	CalDAVCreds    CalDAVCredentialProvider

	// Breakers, when set, wraps every provider in its type's circuit breaker.
	Breakers *application.BreakerSet

	// Timeout bounds a single provider HTTP request. Zero keeps provider defaults.
	Timeout time.Duration

	Logger *slog.Logger
}

// RegisterProviders registers all configured calendar providers with the registry.
func RegisterProviders(registry *application.ProviderRegistry, config ProviderConfig) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if config.GoogleOAuth != nil {
		registry.Register(domain.ProviderGoogle, func(ctx context.Context, acc *domain.CalendarAccount) (application.Provider, error) {
			return googleCal.NewProviderWithBaseURL(config.GoogleOAuth, logger, acc.ConfigValue(domain.ConfigKeyBaseURL)).
				WithTimeout(config.Timeout), nil
		})
		logger.Debug("registered Google Calendar provider")
	}

	if config.MicrosoftOAuth != nil {
		registry.Register(domain.ProviderMicrosoft, func(ctx context.Context, acc *domain.CalendarAccount) (application.Provider, error) {
			return microsoftCal.NewProviderWithBaseURL(config.MicrosoftOAuth, logger, acc.ConfigValue(domain.ConfigKeyBaseURL)), nil
		})
		logger.Debug("registered Microsoft Calendar provider")
	}

	if config.CalDAVCreds != nil {
		registry.Register(domain.ProviderApple, caldavFactory(config, logger, caldav.AppleCalDAVURL))
		registry.Register(domain.ProviderCalDAV, caldavFactory(config, logger, ""))
		logger.Debug("registered CalDAV providers")
	}

	if config.Breakers != nil {
		registry.Wrap(config.Breakers.Wrap)
	}
}

func caldavFactory(config ProviderConfig, logger *slog.Logger, defaultURL string) application.ProviderFactory {
	return func(ctx context.Context, acc *domain.CalendarAccount) (application.Provider, error) {
		baseURL := acc.CalDAVURL()
		if baseURL == "" {
			baseURL = defaultURL
		}
		if baseURL == "" {
			return nil, domain.ErrCalDAVURLMissing
		}

		username, password, err := config.CalDAVCreds.Credentials(ctx, acc.ID())
		if err != nil {
			return nil, fmt.Errorf("failed to get %s credentials: %w", acc.Provider(), err)
		}
		return caldav.NewProvider(baseURL, username, password, logger).WithTimeout(config.Timeout), nil
	}
}
