package domain

// FreeBusyDocument lists the busy ranges a free/busy lookup returned.
type FreeBusyDocument struct {
	MemberID MemberID
	Busy     []TimeRange
}

// IsBusy reports whether slot collides with the document's busy time.
// A missing document, or one that failed to load, counts as busy.
func IsBusy(doc *FreeBusyDocument, err error, slot TimeRange) bool {
	if err != nil || doc == nil {
		return true
	}
	for _, b := range doc.Busy {
		if _, ok := b.Intersect(slot); ok {
			return true
		}
	}
	return false
}
