package application_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/calendar/application"
	"github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreakerConfig() application.BreakerConfig {
	return application.BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}
}

func TestBreakerSet_OpensAfterConsecutiveFailures(t *testing.T) {
	set := application.NewBreakerSet(testBreakerConfig(), nil)
	stub := &stubProvider{err: &application.ProviderError{Provider: domain.ProviderGoogle, StatusCode: 500}}
	p := set.Wrap(domain.ProviderGoogle, stub)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := p.ListEvents(ctx, nil, time.Time{}, time.Time{})
		assert.Equal(t, 500, application.StatusCodeOf(err))
	}
	assert.Equal(t, gobreaker.StateOpen, set.State(domain.ProviderGoogle))

	_, err := p.ListEvents(ctx, nil, time.Time{}, time.Time{})
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, application.StatusCodeOf(err))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, stub.calls, "open breaker does not reach the provider")
}

func TestBreakerSet_SharedPerProviderType(t *testing.T) {
	set := application.NewBreakerSet(testBreakerConfig(), nil)
	failing := &stubProvider{err: errors.New("boom")}
	healthy := &stubProvider{}

	g1 := set.Wrap(domain.ProviderGoogle, failing)
	g2 := set.Wrap(domain.ProviderGoogle, healthy)
	ms := set.Wrap(domain.ProviderMicrosoft, healthy)

	ctx := context.Background()
	_, _ = g1.ListEvents(ctx, nil, time.Time{}, time.Time{})
	_, _ = g1.ListEvents(ctx, nil, time.Time{}, time.Time{})

	_, err := g2.ListEvents(ctx, nil, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	_, err = ms.ListEvents(ctx, nil, time.Time{}, time.Time{})
	assert.NoError(t, err)
}

func TestBreakerSet_CancellationDoesNotTrip(t *testing.T) {
	set := application.NewBreakerSet(testBreakerConfig(), nil)
	p := set.Wrap(domain.ProviderCalDAV, &stubProvider{err: context.Canceled})

	for i := 0; i < 5; i++ {
		_, _ = p.ListEvents(context.Background(), nil, time.Time{}, time.Time{})
	}

	assert.Equal(t, gobreaker.StateClosed, set.State(domain.ProviderCalDAV))
}

func TestBreakerSet_Disabled(t *testing.T) {
	cfg := testBreakerConfig()
	cfg.Enabled = false
	set := application.NewBreakerSet(cfg, nil)
	stub := &stubProvider{}

	assert.Same(t, stub, set.Wrap(domain.ProviderGoogle, stub))
}

func TestBreakerSet_States(t *testing.T) {
	set := application.NewBreakerSet(testBreakerConfig(), nil)
	assert.Empty(t, set.States())

	p := set.Wrap(domain.ProviderMicrosoft, &stubProvider{err: errors.New("boom")})
	_, _ = p.ListEvents(context.Background(), nil, time.Time{}, time.Time{})
	_, _ = p.ListEvents(context.Background(), nil, time.Time{}, time.Time{})
	set.Wrap(domain.ProviderApple, &stubProvider{})

	assert.Equal(t, map[string]string{
		"microsoft": "open",
		"apple":     "closed",
	}, set.States())
}
