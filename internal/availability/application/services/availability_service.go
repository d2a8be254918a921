package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/felixgeelhaar/freebusy/pkg/observability"
	"golang.org/x/sync/errgroup"
)

// AvailabilityService computes free time for members on a date.
// It holds no per-request state and is safe for concurrent use.
type AvailabilityService struct {
	fetcher  BusyFetcher
	profiles domain.ProfileRepository
	bookings domain.BookingRepository
	metrics  observability.Metrics
	logger   *slog.Logger
}

// NewAvailabilityService creates the service. bookings, metrics and logger may be nil.
func NewAvailabilityService(
	fetcher BusyFetcher,
	profiles domain.ProfileRepository,
	bookings domain.BookingRepository,
	metrics observability.Metrics,
	logger *slog.Logger,
) *AvailabilityService {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AvailabilityService{
		fetcher:  fetcher,
		profiles: profiles,
		bookings: bookings,
		metrics:  metrics,
		logger:   logger,
	}
}

// MemberFreeSlots returns one member's free time on date: the weekly window for
// date's weekday minus calendar events and existing bookings.
func (s *AvailabilityService) MemberFreeSlots(ctx context.Context, memberID domain.MemberID, date time.Time) (domain.FreeSlotSet, error) {
	profile, err := s.profiles.FindByMemberID(ctx, memberID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return domain.FreeSlotSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile for %s: %w", memberID, err)
	}
	if !profile.SchedulingEnabled {
		return domain.FreeSlotSet{}, nil
	}
	window, ok := domain.ApplicableWindow(date, profile.WeeklyWindows, profile.Location())
	if !ok {
		return domain.FreeSlotSet{}, nil
	}

	busy, err := s.busyRanges(ctx, memberID, window, date)
	if err != nil {
		return nil, err
	}
	return domain.ResolveForDate(profile, date, domain.Merge(busy)), nil
}

// MutualFreeSlots intersects the free time of every member on date.
// Members are fetched concurrently; the first failure cancels the rest and is
// returned. There are no retries and no deadline beyond ctx's.
func (s *AvailabilityService) MutualFreeSlots(ctx context.Context, memberIDs []domain.MemberID, date time.Time) (domain.FreeSlotSet, error) {
	if len(memberIDs) == 0 {
		return domain.FreeSlotSet{}, nil
	}

	timer := observability.StartTimer("availability.mutual").
		WithMetrics(s.metrics).
		WithTags(observability.T("members", fmt.Sprint(len(memberIDs))))

	sets := make([]domain.FreeSlotSet, len(memberIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range memberIDs {
		g.Go(func() error {
			set, err := s.MemberFreeSlots(gctx, id, date)
			if err != nil {
				return err
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		timer.StopWithError(err)
		s.logger.WarnContext(ctx, "mutual availability failed", "members", memberIDs, "date", date.Format(domain.DateLayout), "error", err)
		return nil, err
	}

	free := domain.IntersectAll(sets...)
	timer.Stop()
	s.metrics.Gauge(observability.MetricMutualFreeMinutes, free.Total().Minutes())
	return free, nil
}

// FreeBusy loads a member's busy time for the day containing date.
func (s *AvailabilityService) FreeBusy(ctx context.Context, memberID domain.MemberID, date time.Time) (*domain.FreeBusyDocument, error) {
	loc, err := s.location(ctx, memberID)
	if err != nil {
		return nil, err
	}
	busy, err := s.busyRanges(ctx, memberID, domain.DayBounds(date, loc), date)
	if err != nil {
		return nil, err
	}
	return &domain.FreeBusyDocument{MemberID: memberID, Busy: domain.Merge(busy)}, nil
}

// IsMemberBusy reports whether slot collides with the member's busy time.
// Busy time is loaded for every local day the slot touches in the member's zone.
// If the free/busy lookup fails the slot is reported busy.
func (s *AvailabilityService) IsMemberBusy(ctx context.Context, memberID domain.MemberID, slot domain.TimeRange) bool {
	doc, err := s.slotFreeBusy(ctx, memberID, slot)
	if err != nil {
		s.logger.WarnContext(ctx, "free/busy lookup failed, treating slot as busy", "member_id", memberID, "slot", slot.String(), "error", err)
	}
	return domain.IsBusy(doc, err, slot)
}

func (s *AvailabilityService) slotFreeBusy(ctx context.Context, memberID domain.MemberID, slot domain.TimeRange) (*domain.FreeBusyDocument, error) {
	loc, err := s.location(ctx, memberID)
	if err != nil {
		return nil, err
	}
	var busy []domain.TimeRange
	for _, date := range domain.LocalDates(slot, loc) {
		ranges, err := s.busyRanges(ctx, memberID, domain.DayBounds(date, loc), date)
		if err != nil {
			return nil, err
		}
		busy = append(busy, ranges...)
	}
	return &domain.FreeBusyDocument{MemberID: memberID, Busy: domain.Merge(busy)}, nil
}

// location is the member's zone, UTC when the member has no profile.
func (s *AvailabilityService) location(ctx context.Context, memberID domain.MemberID) (*time.Location, error) {
	profile, err := s.profiles.FindByMemberID(ctx, memberID)
	switch {
	case err == nil:
		return profile.Location(), nil
	case errors.Is(err, domain.ErrProfileNotFound):
		return time.UTC, nil
	default:
		return nil, fmt.Errorf("load profile for %s: %w", memberID, err)
	}
}

func (s *AvailabilityService) busyRanges(ctx context.Context, memberID domain.MemberID, window domain.TimeRange, date time.Time) ([]domain.TimeRange, error) {
	timer := observability.StartTimer("availability.fetch").WithMetrics(s.metrics)
	events, err := s.fetcher.FetchBusy(ctx, memberID, window.Start, window.End, date)
	timer.StopWithError(err)
	if err != nil {
		return nil, err
	}

	busy := domain.Ranges(events)
	if s.bookings != nil {
		booked, err := s.bookings.ListForMember(ctx, memberID, window)
		if err != nil {
			return nil, fmt.Errorf("load bookings for %s: %w", memberID, err)
		}
		busy = append(busy, booked...)
	}
	return busy, nil
}
