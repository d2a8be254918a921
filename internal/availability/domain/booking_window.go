package domain

import (
	"sort"
	"time"
)

// BookingPolicy restricts which dates can be booked.
type BookingPolicy struct {
	// MinimumNoticeDays is how many days ahead of today the first bookable date is.
	MinimumNoticeDays int
	// AvailabilityWindowDays caps how many days from the first bookable date are open.
	// Zero or negative means no cap.
	AvailabilityWindowDays int
	// MaxBookingsPerDay closes a date once this many bookings exist.
	// Zero or negative means unlimited.
	MaxBookingsPerDay int
}

// DateValidation is the outcome of checking a date against a BookingPolicy.
type DateValidation struct {
	Valid      bool
	ValidStart time.Time
	// ValidEnd is zero when the policy has no availability window.
	ValidEnd      time.Time
	NextValidDate time.Time
	PrevValidDate time.Time
}

// ValidateDate checks date against the policy relative to today.
// Both dates are compared by calendar day.
func (p BookingPolicy) ValidateDate(date, today time.Time) DateValidation {
	date = truncateDay(date)
	start := truncateDay(today).AddDate(0, 0, p.MinimumNoticeDays)

	var end time.Time
	if p.AvailabilityWindowDays > 0 {
		end = start.AddDate(0, 0, p.AvailabilityWindowDays-1)
	}

	v := DateValidation{ValidStart: start, ValidEnd: end}
	switch {
	case start.After(date):
		v.NextValidDate, v.PrevValidDate = start, start
	case !end.IsZero() && end.Before(date):
		v.NextValidDate, v.PrevValidDate = end, start
	default:
		v.Valid = true
		v.NextValidDate, v.PrevValidDate = date, date
	}
	return v
}

// FrequencyReached reports whether the daily booking limit is used up.
func (p BookingPolicy) FrequencyReached(bookings int) bool {
	return p.MaxBookingsPerDay > 0 && bookings >= p.MaxBookingsPerDay
}

// SharedWeekdays returns the weekdays on which every profile has a window.
func SharedWeekdays(profiles []*MemberProfile) []time.Weekday {
	counts := make(map[time.Weekday]int, 7)
	for _, p := range profiles {
		seen := make(map[time.Weekday]bool, len(p.WeeklyWindows))
		for _, w := range p.WeeklyWindows {
			if !seen[w.Weekday] {
				seen[w.Weekday] = true
				counts[w.Weekday]++
			}
		}
	}

	days := make([]time.Weekday, 0, 7)
	for d, n := range counts {
		if n == len(profiles) {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// DayCheck describes whether a date falls on a day every member works.
type DayCheck struct {
	Validation     DateValidation
	AvailableDays  []time.Weekday
	InvalidDate    bool
	SlotsAvailable bool
}

// CheckAvailableDays applies the shared weekdays to a date validation.
// When the date's weekday is not shared, the next and previous valid dates move
// to the nearest shared weekdays, clamped to the policy's valid range.
func CheckAvailableDays(v DateValidation, date time.Time, days []time.Weekday) DayCheck {
	res := DayCheck{
		Validation:     v,
		AvailableDays:  days,
		InvalidDate:    !v.Valid,
		SlotsAvailable: true,
	}
	if !v.Valid {
		return res
	}
	if len(days) == 0 {
		res.InvalidDate = true
		res.SlotsAvailable = false
		return res
	}
	if containsWeekday(days, date.Weekday()) {
		return res
	}

	res.InvalidDate = true
	next, ok := daysUntil(date.Weekday(), days, 1)
	if !ok {
		res.SlotsAvailable = false
		return res
	}
	prev, _ := daysUntil(date.Weekday(), days, -1)

	nextDate := v.NextValidDate.AddDate(0, 0, next)
	if !v.ValidEnd.IsZero() && nextDate.After(v.ValidEnd) {
		nextDate = v.ValidEnd
	}
	prevDate := v.PrevValidDate.AddDate(0, 0, -prev)
	if prevDate.Before(v.ValidStart) {
		prevDate = v.ValidStart
	}
	res.Validation.NextValidDate = nextDate
	res.Validation.PrevValidDate = prevDate
	return res
}

// GroupWindow narrows the members' windows for date's weekday to their common span.
// It returns false if any member has no window that day or the spans do not meet.
func GroupWindow(profiles []*MemberProfile, date time.Time) (TimeRange, bool) {
	if len(profiles) == 0 {
		return TimeRange{}, false
	}
	var group TimeRange
	for i, p := range profiles {
		w, ok := ApplicableWindow(date, p.WeeklyWindows, p.Location())
		if !ok {
			return TimeRange{}, false
		}
		if i == 0 {
			group = w
			continue
		}
		group.Start = maxTime(group.Start, w.Start)
		group.End = minTime(group.End, w.End)
	}
	if !group.Start.Before(group.End) {
		return TimeRange{}, false
	}
	return group, true
}

func daysUntil(from time.Weekday, days []time.Weekday, step int) (int, bool) {
	for i := 1; i < 7; i++ {
		d := time.Weekday(((int(from)+step*i)%7 + 7) % 7)
		if containsWeekday(days, d) {
			return i, true
		}
	}
	return 0, false
}

func containsWeekday(days []time.Weekday, d time.Weekday) bool {
	for _, x := range days {
		if x == d {
			return true
		}
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
