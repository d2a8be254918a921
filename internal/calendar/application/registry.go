package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/freebusy/internal/calendar/domain"
)

// ProviderFactory creates a Provider for a specific calendar account.
type ProviderFactory func(ctx context.Context, account *domain.CalendarAccount) (Provider, error)

// ProviderRegistry manages calendar provider implementations.
// Factories are keyed by provider type and resolved per account.
type ProviderRegistry struct {
	mu        sync.RWMutex
	factories map[domain.ProviderType]ProviderFactory
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		factories: make(map[domain.ProviderType]ProviderFactory),
	}
}

// Register registers a provider factory for a provider type.
func (r *ProviderRegistry) Register(provider domain.ProviderType, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[provider] = factory
}

// Wrap decorates every registered factory's providers with wrap.
func (r *ProviderRegistry) Wrap(wrap func(domain.ProviderType, Provider) Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pt, factory := range r.factories {
		pt, factory := pt, factory
		r.factories[pt] = func(ctx context.Context, account *domain.CalendarAccount) (Provider, error) {
			p, err := factory(ctx, account)
			if err != nil {
				return nil, err
			}
			return wrap(pt, p), nil
		}
	}
}

// ProviderFor creates a provider for the given account.
func (r *ProviderRegistry) ProviderFor(ctx context.Context, account *domain.CalendarAccount) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[account.Provider()]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no provider registered for: %s", account.Provider())
	}
	return factory(ctx, account)
}

// HasProvider returns true if a provider is registered.
func (r *ProviderRegistry) HasProvider(provider domain.ProviderType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[provider]
	return ok
}

// SupportedProviders returns all registered provider types in name order.
func (r *ProviderRegistry) SupportedProviders() []domain.ProviderType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.ProviderType, 0, len(r.factories))
	for p := range r.factories {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
