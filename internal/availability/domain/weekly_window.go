package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekly window validation errors.
var (
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrInvalidWindow    = errors.New("window start must be before end")
	ErrDuplicateWeekday = errors.New("weekday appears more than once")
	ErrInvalidWeekday   = errors.New("invalid weekday")
)

// TimeOfDay is an offset from local midnight.
type TimeOfDay time.Duration

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	limits := []int{24, 60, 60}
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	var total time.Duration
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n >= limits[i] {
			// 24:00 is accepted as end of day
			if i == 0 && n == 24 && err == nil && allZero(parts[1:]) {
				total += 24 * time.Hour
				continue
			}
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
		}
		total += time.Duration(n) * units[i]
	}
	return TimeOfDay(total), nil
}

// MustParseTimeOfDay is ParseTimeOfDay for literals; it panics on error.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func allZero(parts []string) bool {
	for _, p := range parts {
		if n, err := strconv.Atoi(p); err != nil || n != 0 {
			return false
		}
	}
	return true
}

// Duration returns the offset as a time.Duration.
func (t TimeOfDay) Duration() time.Duration { return time.Duration(t) }

// String formats the offset as HH:MM:SS.
func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ParseWeekday parses a weekday name such as "Monday" or "mon".
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// WeeklyWindow is a recurring local-time interval on one weekday.
type WeeklyWindow struct {
	Weekday time.Weekday
	Start   TimeOfDay
	End     TimeOfDay
}

// Validate checks the window itself.
func (w WeeklyWindow) Validate() error {
	if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
		return fmt.Errorf("%w: %d", ErrInvalidWeekday, w.Weekday)
	}
	if w.Start >= w.End {
		return fmt.Errorf("%w: %s %s-%s", ErrInvalidWindow, w.Weekday, w.Start, w.End)
	}
	return nil
}

// ValidateWeeklyWindows checks every window and rejects repeated weekdays.
func ValidateWeeklyWindows(windows []WeeklyWindow) error {
	seen := make(map[time.Weekday]bool, len(windows))
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return err
		}
		if seen[w.Weekday] {
			return fmt.Errorf("%w: %s", ErrDuplicateWeekday, w.Weekday)
		}
		seen[w.Weekday] = true
	}
	return nil
}

// WindowFor returns the window configured for a weekday.
func WindowFor(windows []WeeklyWindow, weekday time.Weekday) (WeeklyWindow, bool) {
	for _, w := range windows {
		if w.Weekday == weekday {
			return w, true
		}
	}
	return WeeklyWindow{}, false
}
