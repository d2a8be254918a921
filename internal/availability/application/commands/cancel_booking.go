package commands

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// BookingCanceller cancels bookings.
type BookingCanceller interface {
	Cancel(ctx context.Context, bookingID uuid.UUID) error
}

// CancelBookingCommand frees the time held by a booking.
type CancelBookingCommand struct {
	BookingID uuid.UUID
}

// CancelBookingHandler handles the CancelBookingCommand.
type CancelBookingHandler struct {
	bookings BookingCanceller
}

// NewCancelBookingHandler creates a new CancelBookingHandler.
func NewCancelBookingHandler(bookings BookingCanceller) *CancelBookingHandler {
	return &CancelBookingHandler{bookings: bookings}
}

// Handle executes the CancelBookingCommand.
func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) error {
	if cmd.BookingID == uuid.Nil {
		return errors.New("booking id is required")
	}
	return h.bookings.Cancel(ctx, cmd.BookingID)
}
