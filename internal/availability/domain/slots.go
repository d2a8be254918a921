package domain

import (
	"errors"
	"time"
)

// ErrInvalidDuration is returned when a slot duration is not positive.
var ErrInvalidDuration = errors.New("slot duration must be positive")

// SlotRules controls how free time is cut into bookable slots.
type SlotRules struct {
	Duration time.Duration
	// Buffer is kept clear between a slot and any busy interval next to it.
	Buffer time.Duration
	// Now drops slots that start before it. Zero disables the filter.
	Now time.Time
}

// SliceSlots cuts free ranges into back-to-back slots of the given duration.
// Free edges that border busy time (rather than the window edge) are pulled in by
// the buffer.
func SliceSlots(window TimeRange, free FreeSlotSet, rules SlotRules) ([]TimeRange, error) {
	if rules.Duration <= 0 {
		return nil, ErrInvalidDuration
	}

	slots := make([]TimeRange, 0)
	for _, r := range free {
		lo, hi := r.Start, r.End
		if lo.After(window.Start) {
			lo = lo.Add(rules.Buffer)
		}
		if hi.Before(window.End) {
			hi = hi.Add(-rules.Buffer)
		}
		for start := lo; !start.Add(rules.Duration).After(hi); start = start.Add(rules.Duration) {
			if !rules.Now.IsZero() && start.Before(rules.Now) {
				continue
			}
			slots = append(slots, TimeRange{Start: start, End: start.Add(rules.Duration)})
		}
	}
	return slots, nil
}
