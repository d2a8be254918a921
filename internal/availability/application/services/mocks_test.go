package services

import (
	"context"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	calendarApp "github.com/felixgeelhaar/freebusy/internal/calendar/application"
	calendarDomain "github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockProfileRepo struct {
	mock.Mock
}

func (m *mockProfileRepo) FindByMemberID(ctx context.Context, id domain.MemberID) (*domain.MemberProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemberProfile), args.Error(1)
}

type mockAccountFinder struct {
	mock.Mock
}

func (m *mockAccountFinder) FindByID(ctx context.Context, id uuid.UUID) (*calendarDomain.CalendarAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*calendarDomain.CalendarAccount), args.Error(1)
}

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) ListForMember(ctx context.Context, id domain.MemberID, within domain.TimeRange) ([]domain.TimeRange, error) {
	args := m.Called(ctx, id, within)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TimeRange), args.Error(1)
}

// staticResolver hands every account the same provider.
type staticResolver struct {
	provider calendarApp.Provider
	err      error
}

func (r staticResolver) ProviderFor(ctx context.Context, account *calendarDomain.CalendarAccount) (calendarApp.Provider, error) {
	return r.provider, r.err
}

// eventsProvider returns fixed events and records the day it was asked for.
func eventsProvider(events []calendarApp.ProviderEvent, err error, gotStart, gotEnd *time.Time) calendarApp.Provider {
	return calendarApp.ProviderFunc(func(ctx context.Context, account *calendarDomain.CalendarAccount, dayStart, dayEnd time.Time) ([]calendarApp.ProviderEvent, error) {
		if gotStart != nil {
			*gotStart, *gotEnd = dayStart, dayEnd
		}
		return events, err
	})
}

var monday = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return monday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func rng(h1, m1, h2, m2 int) domain.TimeRange {
	return domain.TimeRange{Start: at(h1, m1), End: at(h2, m2)}
}

func profileWithAccount(member domain.MemberID, accountID uuid.UUID, start, end string) *domain.MemberProfile {
	ref := ""
	if accountID != uuid.Nil {
		ref = accountID.String()
	}
	return &domain.MemberProfile{
		MemberID:           member,
		CalendarAccountRef: ref,
		SchedulingEnabled:  true,
		TimeZone:           "UTC",
		WeeklyWindows: []domain.WeeklyWindow{
			{Weekday: time.Monday, Start: domain.MustParseTimeOfDay(start), End: domain.MustParseTimeOfDay(end)},
		},
	}
}

func googleAccount(id uuid.UUID, owner string) *calendarDomain.CalendarAccount {
	return calendarDomain.RehydrateCalendarAccount(id, owner, calendarDomain.ProviderGoogle, "", false, true, "", monday)
}

// timed builds an event on monday in the given zone.
func timed(id, creator, tz string, h1, m1, h2, m2 int, attendees ...calendarApp.Attendee) calendarApp.ProviderEvent {
	layout := "2006-01-02T15:04:05"
	return calendarApp.ProviderEvent{
		ID:           id,
		Start:        calendarApp.EventTime{DateTime: at(h1, m1).Format(layout), TimeZone: tz},
		End:          calendarApp.EventTime{DateTime: at(h2, m2).Format(layout), TimeZone: tz},
		CreatorEmail: creator,
		Attendees:    attendees,
	}
}

func allDay(id, creator string) calendarApp.ProviderEvent {
	return calendarApp.ProviderEvent{
		ID:           id,
		Start:        calendarApp.EventTime{Date: "2024-01-15"},
		End:          calendarApp.EventTime{Date: "2024-01-16"},
		CreatorEmail: creator,
	}
}
