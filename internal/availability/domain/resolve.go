package domain

import (
	"sort"
	"time"
)

// FreeSlotSet is an ordered sequence of disjoint ranges sorted by start.
type FreeSlotSet []TimeRange

// Total returns the summed duration of all slots.
func (s FreeSlotSet) Total() time.Duration {
	var total time.Duration
	for _, r := range s {
		total += r.Duration()
	}
	return total
}

// IsEmpty reports whether the set has no slots.
func (s FreeSlotSet) IsEmpty() bool { return len(s) == 0 }

// Normalize sorts ranges by start and coalesces overlapping ones.
// Zero-length ranges are dropped.
func Normalize(ranges []TimeRange) FreeSlotSet {
	sorted := make([]TimeRange, 0, len(ranges))
	for _, r := range ranges {
		if r.Start.Before(r.End) {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	out := make(FreeSlotSet, 0, len(sorted))
	for _, r := range sorted {
		if n := len(out); n > 0 && r.Start.Before(out[n-1].End) {
			if r.End.After(out[n-1].End) {
				out[n-1].End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Resolve subtracts busy ranges from window.
// Busy ranges are scanned by ascending start; the remaining window is trimmed or
// split at each one. Zero-length remainders are dropped.
func Resolve(window TimeRange, busy []TimeRange) FreeSlotSet {
	byStart := make([]TimeRange, len(busy))
	copy(byStart, busy)
	sort.SliceStable(byStart, func(i, j int) bool {
		return byStart[i].Start.Before(byStart[j].Start)
	})

	free := make(FreeSlotSet, 0, len(byStart)+1)
	cursor := window.Start
	for _, b := range byStart {
		if !b.End.After(cursor) {
			continue
		}
		if !b.Start.Before(window.End) {
			break
		}
		if b.Start.After(cursor) {
			free = append(free, TimeRange{Start: cursor, End: b.Start})
		}
		cursor = b.End
		if !cursor.Before(window.End) {
			return free
		}
	}
	if cursor.Before(window.End) {
		free = append(free, TimeRange{Start: cursor, End: window.End})
	}
	return free
}

// ResolveForDate computes a member's free slots on date.
// The result is empty when scheduling is disabled or no window exists for the weekday.
func ResolveForDate(profile *MemberProfile, date time.Time, busy []TimeRange) FreeSlotSet {
	if profile == nil || !profile.SchedulingEnabled {
		return FreeSlotSet{}
	}
	window, ok := ApplicableWindow(date, profile.WeeklyWindows, profile.Location())
	if !ok {
		return FreeSlotSet{}
	}
	return Resolve(window, busy)
}
