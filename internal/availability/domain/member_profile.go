package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrProfileNotFound is returned by repositories when a member has no stored profile.
var ErrProfileNotFound = errors.New("member profile not found")

// MemberID identifies a member. It is the member's calendar email address.
type MemberID string

// String returns the identifier as stored.
func (m MemberID) String() string { return string(m) }

// Matches compares identifiers case-insensitively, as calendar providers do for emails.
func (m MemberID) Matches(email string) bool {
	return strings.EqualFold(strings.TrimSpace(string(m)), strings.TrimSpace(email))
}

// MemberProfile holds what the engine reads about a member.
// The engine never mutates a profile.
type MemberProfile struct {
	MemberID           MemberID
	CalendarAccountRef string
	WeeklyWindows      []WeeklyWindow
	SchedulingEnabled  bool
	TimeZone           string
}

// HasCalendar reports whether an external calendar account is linked.
func (p *MemberProfile) HasCalendar() bool {
	return p != nil && strings.TrimSpace(p.CalendarAccountRef) != ""
}

// Location returns the member's configured zone, falling back to UTC.
func (p *MemberProfile) Location() *time.Location {
	if p == nil || p.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks the weekly windows and time zone.
func (p *MemberProfile) Validate() error {
	if strings.TrimSpace(string(p.MemberID)) == "" {
		return errors.New("member ID cannot be empty")
	}
	if p.TimeZone != "" {
		if _, err := time.LoadLocation(p.TimeZone); err != nil {
			return err
		}
	}
	return ValidateWeeklyWindows(p.WeeklyWindows)
}

// ProfileRepository reads member profiles.
type ProfileRepository interface {
	FindByMemberID(ctx context.Context, id MemberID) (*MemberProfile, error)
}
