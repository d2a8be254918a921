package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/felixgeelhaar/freebusy/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// DefaultProfileCacheTTL bounds how stale a cached profile may be.
const DefaultProfileCacheTTL = 5 * time.Minute

const profileKeyPrefix = "freebusy:profile:"

// RedisClient is the subset of *redis.Client the cache uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedProfileRepository caches member profiles in Redis in front of another
// repository. Only profiles are cached; busy events and free time are always
// computed fresh. Redis failures fall through to the inner repository.
type CachedProfileRepository struct {
	inner   domain.ProfileRepository
	client  RedisClient
	ttl     time.Duration
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewCachedProfileRepository wraps inner. A non-positive ttl uses DefaultProfileCacheTTL.
func NewCachedProfileRepository(inner domain.ProfileRepository, client RedisClient, ttl time.Duration, metrics observability.Metrics, logger *slog.Logger) *CachedProfileRepository {
	if ttl <= 0 {
		ttl = DefaultProfileCacheTTL
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedProfileRepository{inner: inner, client: client, ttl: ttl, metrics: metrics, logger: logger}
}

type cachedWindow struct {
	Weekday int    `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type cachedProfile struct {
	MemberID           string         `json:"member_id"`
	CalendarAccountRef string         `json:"calendar_account_ref,omitempty"`
	SchedulingEnabled  bool           `json:"scheduling_enabled"`
	TimeZone           string         `json:"time_zone"`
	Windows            []cachedWindow `json:"windows"`
}

// FindByMemberID returns the cached profile or loads and caches it.
func (r *CachedProfileRepository) FindByMemberID(ctx context.Context, id domain.MemberID) (*domain.MemberProfile, error) {
	key := profileKey(id)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		p, decodeErr := decodeProfile(raw)
		if decodeErr == nil {
			r.metrics.Counter(observability.MetricProfileCacheHits, 1)
			return p, nil
		}
		r.logger.WarnContext(ctx, "dropping undecodable cached profile", "member_id", id, "error", decodeErr)
	case !errors.Is(err, redis.Nil):
		r.logger.WarnContext(ctx, "profile cache read failed", "member_id", id, "error", err)
	}
	r.metrics.Counter(observability.MetricProfileCacheMisses, 1)

	p, err := r.inner.FindByMemberID(ctx, id)
	if err != nil {
		return nil, err
	}

	if body, err := json.Marshal(encodeProfile(p)); err == nil {
		if err := r.client.Set(ctx, key, body, r.ttl).Err(); err != nil {
			r.logger.WarnContext(ctx, "profile cache write failed", "member_id", id, "error", err)
		}
	}
	return p, nil
}

// Invalidate drops a member's cached profile.
func (r *CachedProfileRepository) Invalidate(ctx context.Context, id domain.MemberID) error {
	return r.client.Del(ctx, profileKey(id)).Err()
}

func profileKey(id domain.MemberID) string {
	return profileKeyPrefix + strings.ToLower(strings.TrimSpace(string(id)))
}

func encodeProfile(p *domain.MemberProfile) cachedProfile {
	c := cachedProfile{
		MemberID:           string(p.MemberID),
		CalendarAccountRef: p.CalendarAccountRef,
		SchedulingEnabled:  p.SchedulingEnabled,
		TimeZone:           p.TimeZone,
		Windows:            make([]cachedWindow, 0, len(p.WeeklyWindows)),
	}
	for _, w := range p.WeeklyWindows {
		c.Windows = append(c.Windows, cachedWindow{
			Weekday: int(w.Weekday),
			Start:   w.Start.String(),
			End:     w.End.String(),
		})
	}
	return c
}

func decodeProfile(raw []byte) (*domain.MemberProfile, error) {
	var c cachedProfile
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	p := &domain.MemberProfile{
		MemberID:           domain.MemberID(c.MemberID),
		CalendarAccountRef: c.CalendarAccountRef,
		SchedulingEnabled:  c.SchedulingEnabled,
		TimeZone:           c.TimeZone,
	}
	for _, w := range c.Windows {
		window, err := parseWindow(w.Weekday, w.Start, w.End)
		if err != nil {
			return nil, err
		}
		p.WeeklyWindows = append(p.WeeklyWindows, window)
	}
	return p, nil
}
