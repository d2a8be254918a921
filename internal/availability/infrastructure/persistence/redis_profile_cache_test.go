package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/felixgeelhaar/freebusy/pkg/observability"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRedis keeps values in a map and can be told to fail.
type stubRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newStubRedis() *stubRedis {
	return &stubRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if s.err != nil {
		return redis.NewStringResult("", s.err)
	}
	v, ok := s.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if s.err != nil {
		return redis.NewStatusResult("", s.err)
	}
	s.values[key] = string(value.([]byte))
	s.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := s.values[k]; ok {
			delete(s.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

// countingRepo counts loads from the backing store.
type countingRepo struct {
	profiles map[domain.MemberID]*domain.MemberProfile
	calls    int
}

func (r *countingRepo) FindByMemberID(ctx context.Context, id domain.MemberID) (*domain.MemberProfile, error) {
	r.calls++
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}

func aliceProfile() *domain.MemberProfile {
	return &domain.MemberProfile{
		MemberID:           "alice@example.com",
		CalendarAccountRef: "4b4f6a3e-2d7b-4a53-9d6b-1f2a3c4d5e6f",
		SchedulingEnabled:  true,
		TimeZone:           "America/New_York",
		WeeklyWindows: []domain.WeeklyWindow{
			window(time.Monday, "09:00", "17:00"),
			window(time.Thursday, "08:30", "12:00"),
		},
	}
}

func TestCachedProfileRepository_CachesProfiles(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepo{profiles: map[domain.MemberID]*domain.MemberProfile{"alice@example.com": aliceProfile()}}
	client := newStubRedis()
	metrics := observability.NewInMemoryMetrics()
	repo := NewCachedProfileRepository(inner, client, time.Minute, metrics, nil)

	first, err := repo.FindByMemberID(ctx, "alice@example.com")
	require.NoError(t, err)
	second, err := repo.FindByMemberID(ctx, "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, aliceProfile(), second)
	assert.Equal(t, time.Minute, client.ttls["freebusy:profile:alice@example.com"])
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricProfileCacheHits))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricProfileCacheMisses))
}

func TestCachedProfileRepository_NotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepo{profiles: map[domain.MemberID]*domain.MemberProfile{}}
	client := newStubRedis()
	repo := NewCachedProfileRepository(inner, client, 0, nil, nil)

	_, err := repo.FindByMemberID(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	_, err = repo.FindByMemberID(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	assert.Equal(t, 2, inner.calls)
	assert.Empty(t, client.values)
}

func TestCachedProfileRepository_RedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepo{profiles: map[domain.MemberID]*domain.MemberProfile{"alice@example.com": aliceProfile()}}
	client := newStubRedis()
	client.err = errors.New("connection refused")
	repo := NewCachedProfileRepository(inner, client, time.Minute, nil, nil)

	p, err := repo.FindByMemberID(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, aliceProfile(), p)
}

func TestCachedProfileRepository_CorruptEntryIsReloaded(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepo{profiles: map[domain.MemberID]*domain.MemberProfile{"alice@example.com": aliceProfile()}}
	client := newStubRedis()
	client.values["freebusy:profile:alice@example.com"] = "{not json"
	repo := NewCachedProfileRepository(inner, client, time.Minute, nil, nil)

	p, err := repo.FindByMemberID(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, aliceProfile(), p)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedProfileRepository_Invalidate(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepo{profiles: map[domain.MemberID]*domain.MemberProfile{"alice@example.com": aliceProfile()}}
	repo := NewCachedProfileRepository(inner, newStubRedis(), time.Minute, nil, nil)

	_, err := repo.FindByMemberID(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.Invalidate(ctx, "Alice@Example.com"))
	_, err = repo.FindByMemberID(ctx, "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}
