package domain

import "strings"

// ResponseStatus is a member's reply to an event invitation.
type ResponseStatus string

const (
	ResponseAccepted    ResponseStatus = "accepted"
	ResponseDeclined    ResponseStatus = "declined"
	ResponseTentative   ResponseStatus = "tentative"
	ResponseNeedsAction ResponseStatus = "needsAction"
	ResponseNone        ResponseStatus = ""
)

// ParseResponseStatus normalizes provider spellings of a reply.
func ParseResponseStatus(s string) ResponseStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accepted":
		return ResponseAccepted
	case "declined":
		return ResponseDeclined
	case "tentative", "tentativelyaccepted":
		return ResponseTentative
	case "needsaction", "notresponded", "needs-action":
		return ResponseNeedsAction
	default:
		return ResponseNone
	}
}

// BusyEvent is an external calendar event that blocks a member's time.
type BusyEvent struct {
	Range          TimeRange
	SourceTimeZone string
	CreatorID      string
	SelfResponse   ResponseStatus
}

// Ranges extracts the time ranges of the events.
func Ranges(events []BusyEvent) []TimeRange {
	out := make([]TimeRange, 0, len(events))
	for _, e := range events {
		out = append(out, e.Range)
	}
	return out
}
