package domain

import (
	"context"
	"errors"
)

// ErrBookingNotFound is returned when cancelling a booking that does not exist
// or was already cancelled.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepository reads appointments already booked with members.
// Booked time is busy exactly like an external calendar event.
type BookingRepository interface {
	// ListForMember returns the member's non-cancelled bookings overlapping within.
	ListForMember(ctx context.Context, id MemberID, within TimeRange) ([]TimeRange, error)
}
