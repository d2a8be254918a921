package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeRange is returned when a range does not start strictly before it ends.
var ErrInvalidTimeRange = errors.New("time range start must be before end")

// TimeRange represents an absolute interval with start and end.
// Values are immutable; operations return new ranges.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange creates a time range, rejecting empty or inverted intervals.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if !start.Before(end) {
		return TimeRange{}, fmt.Errorf("%w: %s >= %s", ErrInvalidTimeRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimeRange{Start: start, End: end}, nil
}

// Overlaps checks if two time ranges overlap.
// Touching endpoints count as overlapping.
func (t TimeRange) Overlaps(other TimeRange) bool {
	return !(t.End.Before(other.Start) || other.End.Before(t.Start))
}

// Equal reports whether both endpoints match to the second.
func (t TimeRange) Equal(other TimeRange) bool {
	return t.Start.Truncate(time.Second).Equal(other.Start.Truncate(time.Second)) &&
		t.End.Truncate(time.Second).Equal(other.End.Truncate(time.Second))
}

// Duration returns the length of the range.
func (t TimeRange) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Contains reports whether ts lies within [Start, End].
func (t TimeRange) Contains(ts time.Time) bool {
	return !ts.Before(t.Start) && !ts.After(t.End)
}

// Covers reports whether other lies entirely within t.
func (t TimeRange) Covers(other TimeRange) bool {
	return !other.Start.Before(t.Start) && !other.End.After(t.End)
}

// Intersect returns the common part of two ranges.
// The second result is false when the ranges share no positive-length span.
func (t TimeRange) Intersect(other TimeRange) (TimeRange, bool) {
	start := maxTime(t.Start, other.Start)
	end := minTime(t.End, other.End)
	if !start.Before(end) {
		return TimeRange{}, false
	}
	return TimeRange{Start: start, End: end}, true
}

// UTC returns the range with both endpoints in UTC.
func (t TimeRange) UTC() TimeRange {
	return TimeRange{Start: t.Start.UTC(), End: t.End.UTC()}
}

// String formats the range for logs and CLI output.
func (t TimeRange) String() string {
	return t.Start.Format(time.RFC3339) + "/" + t.End.Format(time.RFC3339)
}

// EndThenStart orders ranges by end time, breaking ties on start time.
func EndThenStart(a, b TimeRange) bool {
	if !a.End.Equal(b.End) {
		return a.End.Before(b.End)
	}
	return a.Start.Before(b.Start)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
