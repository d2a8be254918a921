package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/felixgeelhaar/freebusy/pkg/observability"
	"github.com/google/uuid"
)

// ErrSlotUnavailable is returned when a member is busy during the requested slot.
var ErrSlotUnavailable = errors.New("slot is not available")

// BusyChecker reports whether a member is busy during a slot.
type BusyChecker interface {
	IsMemberBusy(ctx context.Context, memberID domain.MemberID, slot domain.TimeRange) bool
}

// BookingWriter records bookings.
type BookingWriter interface {
	Add(ctx context.Context, id domain.MemberID, slot domain.TimeRange) (uuid.UUID, error)
}

// BookSlotCommand books the same slot for every member.
type BookSlotCommand struct {
	MemberIDs []domain.MemberID
	Start     time.Time
	End       time.Time
}

// Booking is one member's recorded booking.
type Booking struct {
	ID       uuid.UUID
	MemberID domain.MemberID
	Slot     domain.TimeRange
}

// BookSlotHandler handles the BookSlotCommand.
type BookSlotHandler struct {
	busy     BusyChecker
	bookings BookingWriter
	logger   *slog.Logger
}

// NewBookSlotHandler creates a new BookSlotHandler. logger may be nil.
func NewBookSlotHandler(busy BusyChecker, bookings BookingWriter, logger *slog.Logger) *BookSlotHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookSlotHandler{busy: busy, bookings: bookings, logger: logger}
}

// Handle re-checks every member's free/busy and records the booking when all are free.
// A member whose free/busy cannot be read counts as busy.
func (h *BookSlotHandler) Handle(ctx context.Context, cmd BookSlotCommand) ([]Booking, error) {
	slot, err := domain.NewTimeRange(cmd.Start.UTC(), cmd.End.UTC())
	if err != nil {
		return nil, err
	}
	members := dedupe(cmd.MemberIDs)
	if len(members) == 0 {
		return nil, errors.New("at least one member is required")
	}
	log := observability.LogOperation(h.logger, "booking.book", "slot", slot.String())

	for _, id := range members {
		if h.busy.IsMemberBusy(ctx, id, slot) {
			log.InfoContext(ctx, "slot rejected", "member_id", id)
			return nil, fmt.Errorf("%w: %s is busy %s", ErrSlotUnavailable, id, slot)
		}
	}

	booked := make([]Booking, 0, len(members))
	for _, id := range members {
		bookingID, err := h.bookings.Add(ctx, id, slot)
		if err != nil {
			return booked, fmt.Errorf("book %s: %w", id, err)
		}
		booked = append(booked, Booking{ID: bookingID, MemberID: id, Slot: slot})
	}
	log.InfoContext(ctx, "slot booked", "members", members)
	return booked, nil
}

func dedupe(ids []domain.MemberID) []domain.MemberID {
	out := make([]domain.MemberID, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen.Matches(string(id)) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, id)
		}
	}
	return out
}
