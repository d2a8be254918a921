package domain

import "sort"

// SortBusy sorts ranges in place by end time, then start time.
// Exact ties keep their input order.
func SortBusy(ranges []TimeRange) {
	sort.SliceStable(ranges, func(i, j int) bool {
		return EndThenStart(ranges[i], ranges[j])
	})
}

// Dedup drops ranges equal to the last kept range.
// Input must already be sorted with SortBusy.
func Dedup(sorted []TimeRange) []TimeRange {
	out := make([]TimeRange, 0, len(sorted))
	for _, r := range sorted {
		if len(out) > 0 && out[len(out)-1].Equal(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Merge sorts and deduplicates busy ranges without modifying the input.
// Merge(Merge(x)) == Merge(x).
func Merge(ranges []TimeRange) []TimeRange {
	sorted := make([]TimeRange, len(ranges))
	copy(sorted, ranges)
	SortBusy(sorted)
	return Dedup(sorted)
}
