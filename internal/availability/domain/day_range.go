package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format accepted at the edges.
const DateLayout = "2006-01-02"

// ErrMissingTimeZone is returned when a naive timestamp has no zone to resolve it in.
var ErrMissingTimeZone = errors.New("timestamp has no time zone")

var naiveLayouts = []string{
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate parses a YYYY-MM-DD date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// DayBounds returns the UTC span of the local calendar day containing date,
// from local midnight up to the next local midnight.
func DayBounds(date time.Time, loc *time.Location) TimeRange {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	return TimeRange{Start: start.UTC(), End: end.UTC()}
}

// LocalDate returns the calendar date of instant t in loc, as midnight UTC.
func LocalDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LocalDates lists the calendar dates in loc that r covers, in order.
// The end instant is exclusive, so a range ending at local midnight stays on one day.
func LocalDates(r TimeRange, loc *time.Location) []time.Time {
	first := LocalDate(r.Start, loc)
	last := first
	if r.End.After(r.Start) {
		last = LocalDate(r.End.Add(-time.Nanosecond), loc)
	}
	dates := []time.Time{first}
	for d := first.AddDate(0, 0, 1); !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// At returns the instant at the given time of day on date's calendar day in loc.
func At(date time.Time, tod TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	dur := tod.Duration()
	h := int(dur / time.Hour)
	mi := int((dur % time.Hour) / time.Minute)
	s := int((dur % time.Minute) / time.Second)
	return time.Date(y, m, d, h, mi, s, 0, loc)
}

// WindowOn maps a weekly window onto a concrete date.
// It returns false when the window belongs to a different weekday.
func WindowOn(date time.Time, window WeeklyWindow, loc *time.Location) (TimeRange, bool) {
	if date.Weekday() != window.Weekday {
		return TimeRange{}, false
	}
	start := At(date, window.Start, loc)
	end := At(date, window.End, loc)
	if !start.Before(end) {
		return TimeRange{}, false
	}
	return TimeRange{Start: start.UTC(), End: end.UTC()}, true
}

// ApplicableWindow finds the window for date's weekday and places it on date.
func ApplicableWindow(date time.Time, windows []WeeklyWindow, loc *time.Location) (TimeRange, bool) {
	w, ok := WindowFor(windows, date.Weekday())
	if !ok {
		return TimeRange{}, false
	}
	return WindowOn(date, w, loc)
}

// ToUTC converts a provider timestamp to UTC.
// Timestamps carrying an offset are converted directly; naive ones are read in tz.
func ToUTC(dateTime, tz string) (time.Time, error) {
	dateTime = strings.TrimSpace(dateTime)
	if t, err := time.Parse(time.RFC3339Nano, dateTime); err == nil {
		return t.UTC(), nil
	}
	if tz == "" {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMissingTimeZone, dateTime)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("load time zone %q: %w", tz, err)
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, dateTime, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", dateTime)
}
