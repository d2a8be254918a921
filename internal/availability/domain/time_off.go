package domain

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidTimeOff is returned for a period that ends before it starts.
var ErrInvalidTimeOff = errors.New("time off must not end before it starts")

// TimeOff is a leave or holiday spanning whole calendar dates, both ends inclusive.
// A member on time off offers no slots that day.
type TimeOff struct {
	MemberID MemberID
	From     time.Time
	To       time.Time
	Reason   string
}

// NewTimeOff validates and normalizes the dates to midnight UTC.
func NewTimeOff(member MemberID, from, to time.Time, reason string) (TimeOff, error) {
	if member == "" {
		return TimeOff{}, errors.New("member ID cannot be empty")
	}
	from, to = LocalDate(from, time.UTC), LocalDate(to, time.UTC)
	if to.Before(from) {
		return TimeOff{}, ErrInvalidTimeOff
	}
	return TimeOff{MemberID: member, From: from, To: to, Reason: reason}, nil
}

// Covers reports whether date falls inside the period.
func (t TimeOff) Covers(date time.Time) bool {
	d := LocalDate(date, time.UTC)
	return !d.Before(t.From) && !d.After(t.To)
}

// TimeOffRepository reads member leave and holidays.
type TimeOffRepository interface {
	// IsOff reports whether the member has time off on date's calendar day.
	IsOff(ctx context.Context, id MemberID, date time.Time) (bool, error)
}
