package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	calendarApp "github.com/felixgeelhaar/freebusy/internal/calendar/application"
	calendarDomain "github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	"github.com/felixgeelhaar/freebusy/pkg/observability"
	"github.com/google/uuid"
)

// AccountFinder loads calendar accounts by ID.
type AccountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*calendarDomain.CalendarAccount, error)
}

// ProviderResolver returns the provider serving an account.
type ProviderResolver interface {
	ProviderFor(ctx context.Context, account *calendarDomain.CalendarAccount) (calendarApp.Provider, error)
}

// BusyFetcher returns a member's busy events relevant to a window.
type BusyFetcher interface {
	FetchBusy(ctx context.Context, memberID domain.MemberID, windowStart, windowEnd, date time.Time) ([]domain.BusyEvent, error)
}

// CalendarFetcher pulls a member's busy events from their external calendar.
type CalendarFetcher struct {
	// Enabled switches external calendar merging on. When false every member
	// is treated as having no calendar.
	Enabled bool

	profiles  domain.ProfileRepository
	accounts  AccountFinder
	providers ProviderResolver
	metrics   observability.Metrics
	logger    *slog.Logger
}

// NewCalendarFetcher creates a fetcher. metrics and logger may be nil.
func NewCalendarFetcher(
	enabled bool,
	profiles domain.ProfileRepository,
	accounts AccountFinder,
	providers ProviderResolver,
	metrics observability.Metrics,
	logger *slog.Logger,
) *CalendarFetcher {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarFetcher{
		Enabled:   enabled,
		profiles:  profiles,
		accounts:  accounts,
		providers: providers,
		metrics:   metrics,
		logger:    logger,
	}
}

// FetchBusy returns the member's events on date that overlap [windowStart, windowEnd].
// Members without a profile, calendar account or enabled account get an empty list.
// Provider failures and unexempted events without a time zone return a *domain.FetchError.
func (f *CalendarFetcher) FetchBusy(ctx context.Context, memberID domain.MemberID, windowStart, windowEnd, date time.Time) ([]domain.BusyEvent, error) {
	if !f.Enabled {
		return []domain.BusyEvent{}, nil
	}

	profile, account, err := f.resolveAccount(ctx, memberID)
	if errors.Is(err, domain.ErrProfileNotConfigured) {
		f.logger.DebugContext(ctx, "member has no calendar, treating as free", "member_id", memberID, "reason", err)
		return []domain.BusyEvent{}, nil
	}
	if err != nil {
		return nil, err
	}

	provider, err := f.providers.ProviderFor(ctx, account)
	if err != nil {
		return nil, f.providerFailure(memberID, err)
	}

	day := domain.DayBounds(date, profile.Location())
	events, err := provider.ListEvents(ctx, account, day.Start, day.End)
	if err != nil {
		return nil, f.providerFailure(memberID, err)
	}

	window := domain.TimeRange{Start: windowStart.UTC(), End: windowEnd.UTC()}
	busy := make([]domain.BusyEvent, 0, len(events))
	for _, ev := range events {
		be, keep, err := f.classify(memberID, account, ev)
		if err != nil {
			return nil, err
		}
		if !keep || !be.Range.Overlaps(window) {
			continue
		}
		busy = append(busy, be)
	}

	// provider ordering is only a hint
	sort.SliceStable(busy, func(i, j int) bool {
		return busy[i].Range.Start.Before(busy[j].Range.Start)
	})

	f.metrics.Counter(observability.MetricBusyEventsFetched, int64(len(busy)), observability.T("provider", account.Provider().String()))
	f.logger.DebugContext(ctx, "fetched busy events",
		"member_id", memberID,
		"provider", account.Provider(),
		"listed", len(events),
		"busy", len(busy),
	)
	return busy, nil
}

// resolveAccount follows the profile's account reference. Anything missing along
// the way is reported as ErrProfileNotConfigured.
func (f *CalendarFetcher) resolveAccount(ctx context.Context, memberID domain.MemberID) (*domain.MemberProfile, *calendarDomain.CalendarAccount, error) {
	profile, err := f.profiles.FindByMemberID(ctx, memberID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return nil, nil, fmt.Errorf("%w: no profile", domain.ErrProfileNotConfigured)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load profile for %s: %w", memberID, err)
	}
	if !profile.HasCalendar() {
		return nil, nil, fmt.Errorf("%w: no calendar account", domain.ErrProfileNotConfigured)
	}

	accountID, err := uuid.Parse(profile.CalendarAccountRef)
	if err != nil {
		f.logger.WarnContext(ctx, "invalid calendar account reference", "member_id", memberID, "ref", profile.CalendarAccountRef)
		return nil, nil, fmt.Errorf("%w: invalid account reference", domain.ErrProfileNotConfigured)
	}

	account, err := f.accounts.FindByID(ctx, accountID)
	if errors.Is(err, calendarDomain.ErrAccountNotFound) {
		return nil, nil, fmt.Errorf("%w: account %s missing", domain.ErrProfileNotConfigured, accountID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load calendar account for %s: %w", memberID, err)
	}
	if !account.IsEnabled() {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrProfileNotConfigured, calendarDomain.ErrAccountDisabled)
	}
	return profile, account, nil
}

// classify decides whether an event blocks the member and converts it to UTC.
func (f *CalendarFetcher) classify(memberID domain.MemberID, account *calendarDomain.CalendarAccount, ev calendarApp.ProviderEvent) (domain.BusyEvent, bool, error) {
	be := domain.BusyEvent{CreatorID: ev.CreatorEmail}

	if !memberID.Matches(ev.CreatorEmail) {
		self, ok := ev.SelfAttendee()
		if !ok {
			f.skipped(account, "not_attending")
			return be, false, nil
		}
		be.SelfResponse = domain.ParseResponseStatus(self.ResponseStatus)
		if be.SelfResponse == domain.ResponseDeclined {
			f.skipped(account, "declined")
			return be, false, nil
		}
	}

	if !ev.Start.HasTimeZone() || !ev.End.HasTimeZone() {
		if account.IgnoreAllDayEvents() {
			f.skipped(account, "all_day")
			return be, false, nil
		}
		return be, false, f.malformed(memberID, ev.ID, domain.ErrMissingTimeZone)
	}

	start, err := domain.ToUTC(ev.Start.DateTime, ev.Start.TimeZone)
	if err != nil {
		return be, false, f.malformed(memberID, ev.ID, err)
	}
	end, err := domain.ToUTC(ev.End.DateTime, ev.End.TimeZone)
	if err != nil {
		return be, false, f.malformed(memberID, ev.ID, err)
	}
	if end.Equal(start) {
		// zero-length markers block nothing
		f.skipped(account, "zero_length")
		return be, false, nil
	}
	if end.Before(start) {
		return be, false, f.malformed(memberID, ev.ID, domain.ErrInvalidTimeRange)
	}

	be.Range = domain.TimeRange{Start: start, End: end}
	be.SourceTimeZone = ev.Start.TimeZone
	return be, true, nil
}

func (f *CalendarFetcher) providerFailure(memberID domain.MemberID, err error) error {
	code := calendarApp.StatusCodeOf(err)
	f.metrics.Counter(observability.MetricFetchErrors, 1, observability.T("kind", "provider_unavailable"))
	return &domain.FetchError{
		MemberID:   memberID,
		Kind:       domain.ErrProviderUnavailable,
		StatusCode: code,
		Err:        err,
	}
}

func (f *CalendarFetcher) malformed(memberID domain.MemberID, eventID string, err error) error {
	f.metrics.Counter(observability.MetricFetchErrors, 1, observability.T("kind", "malformed_event"))
	return &domain.FetchError{
		MemberID: memberID,
		Kind:     domain.ErrMalformedEvent,
		EventID:  eventID,
		Err:      err,
	}
}

func (f *CalendarFetcher) skipped(account *calendarDomain.CalendarAccount, reason string) {
	f.metrics.Counter(observability.MetricBusyEventsSkipped, 1,
		observability.T("provider", account.Provider().String()),
		observability.T("reason", reason),
	)
}
