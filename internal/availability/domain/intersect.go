package domain

// Intersect returns the ranges present in both sets.
// Both inputs must be sorted and disjoint.
func Intersect(a, b FreeSlotSet) FreeSlotSet {
	out := make(FreeSlotSet, 0)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if r, ok := a[i].Intersect(b[j]); ok {
			out = append(out, r)
		}
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}
	return out
}

// IntersectAll folds Intersect across every set.
// Any empty set, or no sets at all, yields an empty result.
func IntersectAll(sets ...FreeSlotSet) FreeSlotSet {
	if len(sets) == 0 {
		return FreeSlotSet{}
	}
	result := Normalize(sets[0])
	for _, s := range sets[1:] {
		if len(result) == 0 {
			break
		}
		result = Intersect(result, Normalize(s))
	}
	return result
}
