package domain

import (
	"errors"
	"fmt"
)

// Fetch error kinds.
var (
	// ErrProfileNotConfigured marks a member without a profile or calendar account.
	// Such members are fully available; the error never leaves the fetcher.
	ErrProfileNotConfigured = errors.New("profile not configured")
	// ErrProviderUnavailable marks a failed calendar provider call.
	ErrProviderUnavailable = errors.New("calendar provider unavailable")
	// ErrMalformedEvent marks an event without time zone data that is not exempt.
	ErrMalformedEvent = errors.New("malformed calendar event")
)

// FetchError is a fatal failure while fetching one member's busy events.
type FetchError struct {
	MemberID   MemberID
	Kind       error
	StatusCode int
	EventID    string
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch busy events for %s: %v", e.MemberID, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": error code %d", e.StatusCode)
	}
	if e.EventID != "" {
		msg += fmt.Sprintf(": event %s", e.EventID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the error kind so callers can use errors.Is with the sentinels.
func (e *FetchError) Is(target error) bool {
	return e.Kind == target
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
