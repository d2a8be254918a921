package application

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig configures per-provider circuit breakers.
type BreakerConfig struct {
	Enabled bool

	// MaxRequests is the maximum number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the settings used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerSet holds one circuit breaker per provider type, shared across accounts.
// Breakers only count failures; they never retry.
type BreakerSet struct {
	mu       sync.Mutex
	breakers map[domain.ProviderType]*gobreaker.CircuitBreaker[[]ProviderEvent]
	config   BreakerConfig
	logger   *slog.Logger
}

// NewBreakerSet creates an empty breaker set.
func NewBreakerSet(config BreakerConfig, logger *slog.Logger) *BreakerSet {
	if logger == nil {
		logger = slog.Default()
	}
	return &BreakerSet{
		breakers: make(map[domain.ProviderType]*gobreaker.CircuitBreaker[[]ProviderEvent]),
		config:   config,
		logger:   logger,
	}
}

func (s *BreakerSet) breaker(pt domain.ProviderType) *gobreaker.CircuitBreaker[[]ProviderEvent] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.breakers[pt]; ok {
		return b
	}

	settings := gobreaker.Settings{
		Name:        string(pt),
		MaxRequests: s.config.MaxRequests,
		Interval:    s.config.Interval,
		Timeout:     s.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.config.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// caller cancellation says nothing about provider health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("calendar provider breaker state changed",
				"provider", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	b := gobreaker.NewCircuitBreaker[[]ProviderEvent](settings)
	s.breakers[pt] = b
	return b
}

// State returns the breaker state for a provider type.
func (s *BreakerSet) State(pt domain.ProviderType) gobreaker.State {
	return s.breaker(pt).State()
}

// States reports the state of every breaker created so far, keyed by provider type.
func (s *BreakerSet) States() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := make(map[string]string, len(s.breakers))
	for pt, b := range s.breakers {
		states[pt.String()] = b.State().String()
	}
	return states
}

// Wrap returns p guarded by the provider type's breaker.
// A disabled set returns p unchanged.
func (s *BreakerSet) Wrap(pt domain.ProviderType, p Provider) Provider {
	if !s.config.Enabled {
		return p
	}
	return &breakerProvider{inner: p, providerType: pt, breaker: s.breaker(pt)}
}

type breakerProvider struct {
	inner        Provider
	providerType domain.ProviderType
	breaker      *gobreaker.CircuitBreaker[[]ProviderEvent]
}

func (b *breakerProvider) ListEvents(ctx context.Context, account *domain.CalendarAccount, dayStart, dayEnd time.Time) ([]ProviderEvent, error) {
	events, err := b.breaker.Execute(func() ([]ProviderEvent, error) {
		return b.inner.ListEvents(ctx, account, dayStart, dayEnd)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &ProviderError{
			Provider:   b.providerType,
			StatusCode: http.StatusServiceUnavailable,
			Err:        err,
		}
	}
	return events, err
}
