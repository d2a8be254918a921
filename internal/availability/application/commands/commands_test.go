package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/application/services"
	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProfileWriter struct {
	mock.Mock
}

func (m *mockProfileWriter) Save(ctx context.Context, profile *domain.MemberProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) Invalidate(ctx context.Context, id domain.MemberID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockBusyChecker struct {
	mock.Mock
}

func (m *mockBusyChecker) IsMemberBusy(ctx context.Context, id domain.MemberID, slot domain.TimeRange) bool {
	args := m.Called(ctx, id, slot)
	return args.Bool(0)
}

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) Add(ctx context.Context, id domain.MemberID, slot domain.TimeRange) (uuid.UUID, error) {
	args := m.Called(ctx, id, slot)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockBookings) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func TestSetProfileHandler_Handle(t *testing.T) {
	ctx := context.Background()
	writer := new(mockProfileWriter)
	cache := new(mockInvalidator)
	handler := NewSetProfileHandler(writer, cache, nil)

	writer.On("Save", ctx, mock.MatchedBy(func(p *domain.MemberProfile) bool {
		return p.MemberID == "alice@example.com" && len(p.WeeklyWindows) == 2
	})).Return(nil)
	cache.On("Invalidate", ctx, domain.MemberID("alice@example.com")).Return(errors.New("redis down"))

	profile, err := handler.Handle(ctx, SetProfileCommand{
		MemberID: " alice@example.com ",
		Windows: []WindowInput{
			{Weekday: "mon", Start: "09:00", End: "17:00"},
			{Weekday: "Wednesday", Start: "10:00", End: "12:30"},
		},
		SchedulingEnabled: true,
		TimeZone:          "Europe/Berlin",
	})

	require.NoError(t, err)
	assert.Equal(t, time.Monday, profile.WeeklyWindows[0].Weekday)
	assert.Equal(t, "12:30:00", profile.WeeklyWindows[1].End.String())
	writer.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestSetProfileHandler_RejectsInvalidProfiles(t *testing.T) {
	writer := new(mockProfileWriter)
	handler := NewSetProfileHandler(writer, nil, nil)

	tests := []struct {
		name string
		cmd  SetProfileCommand
		want error
	}{
		{"bad weekday", SetProfileCommand{MemberID: "a", Windows: []WindowInput{{"funday", "09:00", "10:00"}}}, domain.ErrInvalidWeekday},
		{"bad time", SetProfileCommand{MemberID: "a", Windows: []WindowInput{{"mon", "9am", "10:00"}}}, domain.ErrInvalidTimeOfDay},
		{"inverted", SetProfileCommand{MemberID: "a", Windows: []WindowInput{{"mon", "10:00", "09:00"}}}, domain.ErrInvalidWindow},
		{"duplicate day", SetProfileCommand{MemberID: "a", Windows: []WindowInput{{"mon", "09:00", "10:00"}, {"monday", "11:00", "12:00"}}}, domain.ErrDuplicateWeekday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Handle(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := handler.Handle(context.Background(), SetProfileCommand{MemberID: "a", TimeZone: "Mars/Olympus"})
	assert.Error(t, err)
	writer.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestParseWindowSpec(t *testing.T) {
	in, err := ParseWindowSpec("tue=08:30-12:00")
	require.NoError(t, err)
	assert.Equal(t, WindowInput{Weekday: "tue", Start: "08:30", End: "12:00"}, in)

	_, err = ParseWindowSpec("tue 08:30-12:00")
	assert.Error(t, err)
	_, err = ParseWindowSpec("tue=08:30")
	assert.Error(t, err)
}

func slotAt(h1, h2 int) (time.Time, time.Time) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	return day.Add(time.Duration(h1) * time.Hour), day.Add(time.Duration(h2) * time.Hour)
}

func TestBookSlotHandler_BooksEveryFreeMember(t *testing.T) {
	ctx := context.Background()
	busy := new(mockBusyChecker)
	bookings := new(mockBookings)
	handler := NewBookSlotHandler(busy, bookings, nil)

	start, end := slotAt(10, 11)
	slot := domain.TimeRange{Start: start, End: end}
	first, second := uuid.New(), uuid.New()

	busy.On("IsMemberBusy", ctx, domain.MemberID("alice@example.com"), slot).Return(false)
	busy.On("IsMemberBusy", ctx, domain.MemberID("bob@example.com"), slot).Return(false)
	bookings.On("Add", ctx, domain.MemberID("alice@example.com"), slot).Return(first, nil)
	bookings.On("Add", ctx, domain.MemberID("bob@example.com"), slot).Return(second, nil)

	booked, err := handler.Handle(ctx, BookSlotCommand{
		MemberIDs: []domain.MemberID{"alice@example.com", "bob@example.com", "ALICE@example.com"},
		Start:     start,
		End:       end,
	})

	require.NoError(t, err)
	require.Len(t, booked, 2)
	assert.Equal(t, first, booked[0].ID)
	assert.Equal(t, second, booked[1].ID)
	busy.AssertNumberOfCalls(t, "IsMemberBusy", 2)
}

func TestBookSlotHandler_BusyMemberBlocksBooking(t *testing.T) {
	ctx := context.Background()
	busy := new(mockBusyChecker)
	bookings := new(mockBookings)
	handler := NewBookSlotHandler(busy, bookings, nil)

	start, end := slotAt(10, 11)
	busy.On("IsMemberBusy", ctx, domain.MemberID("alice@example.com"), mock.Anything).Return(false)
	busy.On("IsMemberBusy", ctx, domain.MemberID("bob@example.com"), mock.Anything).Return(true)

	_, err := handler.Handle(ctx, BookSlotCommand{
		MemberIDs: []domain.MemberID{"alice@example.com", "bob@example.com"},
		Start:     start,
		End:       end,
	})

	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Contains(t, err.Error(), "bob@example.com")
	bookings.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookSlotHandler_InvalidInput(t *testing.T) {
	handler := NewBookSlotHandler(new(mockBusyChecker), new(mockBookings), nil)
	start, end := slotAt(10, 11)

	_, err := handler.Handle(context.Background(), BookSlotCommand{MemberIDs: []domain.MemberID{"a"}, Start: end, End: start})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)

	_, err = handler.Handle(context.Background(), BookSlotCommand{MemberIDs: []domain.MemberID{"a"}, Start: start, End: start})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)

	_, err = handler.Handle(context.Background(), BookSlotCommand{Start: start, End: end})
	assert.Error(t, err)
}

func TestCancelBookingHandler_Handle(t *testing.T) {
	ctx := context.Background()
	bookings := new(mockBookings)
	handler := NewCancelBookingHandler(bookings)

	id := uuid.New()
	bookings.On("Cancel", ctx, id).Return(nil)

	require.NoError(t, handler.Handle(ctx, CancelBookingCommand{BookingID: id}))
	assert.Error(t, handler.Handle(ctx, CancelBookingCommand{}))
	bookings.AssertExpectations(t)
}

// memoryBookings keeps bookings in a slice and serves them back as busy time.
type memoryBookings struct {
	slots []domain.TimeRange
	owner []domain.MemberID
}

func (m *memoryBookings) Add(_ context.Context, id domain.MemberID, slot domain.TimeRange) (uuid.UUID, error) {
	m.slots = append(m.slots, slot)
	m.owner = append(m.owner, id)
	return uuid.New(), nil
}

func (m *memoryBookings) ListForMember(_ context.Context, id domain.MemberID, within domain.TimeRange) ([]domain.TimeRange, error) {
	var out []domain.TimeRange
	for i, slot := range m.slots {
		if m.owner[i] == id && slot.Overlaps(within) {
			out = append(out, slot)
		}
	}
	return out, nil
}

type noEvents struct{}

func (noEvents) FetchBusy(context.Context, domain.MemberID, time.Time, time.Time, time.Time) ([]domain.BusyEvent, error) {
	return nil, nil
}

type staticProfile struct {
	profile *domain.MemberProfile
}

func (s staticProfile) FindByMemberID(context.Context, domain.MemberID) (*domain.MemberProfile, error) {
	return s.profile, nil
}

func TestBookSlotHandler_RejectsDoubleBookingWestOfUTC(t *testing.T) {
	ctx := context.Background()
	member := domain.MemberID("alice@example.com")
	profile := &domain.MemberProfile{
		MemberID:          member,
		SchedulingEnabled: true,
		TimeZone:          "America/Los_Angeles",
		WeeklyWindows: []domain.WeeklyWindow{
			{Weekday: time.Monday, Start: domain.MustParseTimeOfDay("09:00"), End: domain.MustParseTimeOfDay("20:00")},
		},
	}
	bookings := &memoryBookings{}
	svc := services.NewAvailabilityService(noEvents{}, staticProfile{profile}, bookings, nil, nil)
	handler := NewBookSlotHandler(svc, bookings, nil)

	// 17:00-18:00 on Monday 2024-01-15 in Los Angeles.
	start := time.Date(2024, 1, 16, 1, 0, 0, 0, time.UTC)
	_, err := handler.Handle(ctx, BookSlotCommand{MemberIDs: []domain.MemberID{member}, Start: start, End: start.Add(time.Hour)})
	require.NoError(t, err)

	_, err = handler.Handle(ctx, BookSlotCommand{MemberIDs: []domain.MemberID{member}, Start: start.Add(30 * time.Minute), End: start.Add(90 * time.Minute)})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	booked, err := handler.Handle(ctx, BookSlotCommand{MemberIDs: []domain.MemberID{member}, Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, booked, 1)
}

type mockTimeOff struct {
	mock.Mock
}

func (m *mockTimeOff) Add(ctx context.Context, off domain.TimeOff) (uuid.UUID, error) {
	args := m.Called(ctx, off)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func TestAddTimeOffHandler_Handle(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	store := new(mockTimeOff)
	store.On("Add", ctx, domain.TimeOff{
		MemberID: "alice@example.com",
		From:     time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC),
		Reason:   "holiday",
	}).Return(id, nil)
	handler := NewAddTimeOffHandler(store)

	got, off, err := handler.Handle(ctx, AddTimeOffCommand{MemberID: " alice@example.com ", From: "2024-12-25", Reason: "holiday"})
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.True(t, off.Covers(time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)))

	_, _, err = handler.Handle(ctx, AddTimeOffCommand{MemberID: "alice@example.com", From: "2024-12-26", To: "2024-12-24"})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeOff)

	_, _, err = handler.Handle(ctx, AddTimeOffCommand{MemberID: "alice@example.com", From: "next week"})
	assert.Error(t, err)
	store.AssertNumberOfCalls(t, "Add", 1)
}

func TestBookSlotHandler_LogsOperation(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	busy := new(mockBusyChecker)
	handler := NewBookSlotHandler(busy, new(mockBookings), slog.New(slog.NewTextHandler(&buf, nil)))

	start, end := slotAt(10, 11)
	busy.On("IsMemberBusy", ctx, domain.MemberID("bob@example.com"), mock.Anything).Return(true)

	_, err := handler.Handle(ctx, BookSlotCommand{MemberIDs: []domain.MemberID{"bob@example.com"}, Start: start, End: end})

	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Contains(t, buf.String(), "operation=booking.book")
	assert.Contains(t, buf.String(), "msg=\"slot rejected\"")
	assert.Contains(t, buf.String(), "member_id=bob@example.com")
}
