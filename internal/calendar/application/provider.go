package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/calendar/domain"
)

// MaxEventsPerDay caps how many events a provider returns for one day.
const MaxEventsPerDay = 2000

// EventTime is a provider timestamp as delivered, before any conversion.
// All-day events carry only Date; timed events carry DateTime and usually TimeZone.
type EventTime struct {
	DateTime string
	Date     string
	TimeZone string
}

// IsAllDay reports whether the timestamp names a whole day rather than an instant.
func (t EventTime) IsAllDay() bool {
	return t.DateTime == "" && t.Date != ""
}

// HasTimeZone reports whether the timestamp can be placed on the UTC timeline.
// An explicit zone name or an offset inside DateTime both count.
func (t EventTime) HasTimeZone() bool {
	if t.DateTime == "" {
		return false
	}
	if t.TimeZone != "" {
		return true
	}
	_, err := time.Parse(time.RFC3339Nano, t.DateTime)
	return err == nil
}

// Attendee is one invitee as reported by the provider.
type Attendee struct {
	Email          string
	Self           bool
	ResponseStatus string
}

// ProviderEvent is an event returned by a calendar provider.
type ProviderEvent struct {
	ID           string
	Summary      string
	Start        EventTime
	End          EventTime
	CreatorEmail string
	Attendees    []Attendee
}

// SelfAttendee returns the attendee entry the provider marked as the account owner.
func (e ProviderEvent) SelfAttendee() (Attendee, bool) {
	for _, a := range e.Attendees {
		if a.Self {
			return a, true
		}
	}
	return Attendee{}, false
}

// Provider lists events from an external calendar.
type Provider interface {
	// ListEvents returns events between dayStart and dayEnd, ordered by start time
	// where the provider supports it, and at most MaxEventsPerDay of them.
	ListEvents(ctx context.Context, account *domain.CalendarAccount, dayStart, dayEnd time.Time) ([]ProviderEvent, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, account *domain.CalendarAccount, dayStart, dayEnd time.Time) ([]ProviderEvent, error)

// ListEvents calls f.
func (f ProviderFunc) ListEvents(ctx context.Context, account *domain.CalendarAccount, dayStart, dayEnd time.Time) ([]ProviderEvent, error) {
	return f(ctx, account, dayStart, dayEnd)
}

// ProviderError is a failed provider call. StatusCode is the HTTP status, or
// http.StatusBadGateway when the call never produced one.
type ProviderError struct {
	Provider   domain.ProviderType
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s request failed: status=%d", e.Provider, e.StatusCode)
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += " body=" + body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StatusCodeOf extracts the provider status code carried by err.
// Errors that are not ProviderErrors map to http.StatusBadGateway.
func StatusCodeOf(err error) int {
	var perr *ProviderError
	if errors.As(err, &perr) && perr.StatusCode != 0 {
		return perr.StatusCode
	}
	return http.StatusBadGateway
}
