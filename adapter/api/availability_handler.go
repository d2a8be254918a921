package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/application/queries"
	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/felixgeelhaar/freebusy/pkg/observability"
)

// FreeSlotsQuerier answers single-member free time queries.
type FreeSlotsQuerier interface {
	Handle(ctx context.Context, query queries.GetFreeSlotsQuery) (*queries.GetFreeSlotsResult, error)
}

// MutualSlotsQuerier answers multi-member slot queries.
type MutualSlotsQuerier interface {
	Handle(ctx context.Context, query queries.FindMutualSlotsQuery) (*queries.FindMutualSlotsResult, error)
}

// FreeBusyLoader loads a member's busy time for a day.
type FreeBusyLoader interface {
	FreeBusy(ctx context.Context, memberID domain.MemberID, date time.Time) (*domain.FreeBusyDocument, error)
}

// SlotDefaults fill in slot parameters a request leaves out.
type SlotDefaults struct {
	Duration time.Duration
	Buffer   time.Duration
	Policy   domain.BookingPolicy
}

// AvailabilityHandler handles the read-only availability endpoints.
type AvailabilityHandler struct {
	free     FreeSlotsQuerier
	mutual   MutualSlotsQuerier
	freeBusy FreeBusyLoader
	defaults SlotDefaults
	logger   *slog.Logger
	now      func() time.Time
}

// NewAvailabilityHandler creates the handler.
func NewAvailabilityHandler(free FreeSlotsQuerier, mutual MutualSlotsQuerier, freeBusy FreeBusyLoader, defaults SlotDefaults, logger *slog.Logger) *AvailabilityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults.Duration <= 0 {
		defaults.Duration = 30 * time.Minute
	}
	return &AvailabilityHandler{
		free:     free,
		mutual:   mutual,
		freeBusy: freeBusy,
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
}

type busyRangeResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type freeBusyResponse struct {
	MemberID string              `json:"member_id"`
	Date     string              `json:"date"`
	Busy     []busyRangeResponse `json:"busy"`
}

// GetFreeSlots handles GET /api/v1/members/{memberID}/free?date=YYYY-MM-DD.
func (h *AvailabilityHandler) GetFreeSlots(w http.ResponseWriter, r *http.Request) {
	memberID := strings.TrimSpace(r.PathValue("memberID"))
	if memberID == "" {
		writeError(w, http.StatusBadRequest, "member ID is required")
		return
	}
	date, err := h.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := observability.WithMemberID(r.Context(), memberID)
	result, err := h.free.Handle(ctx, queries.GetFreeSlotsQuery{
		MemberID: domain.MemberID(memberID),
		Date:     date,
	})
	if err != nil {
		h.fail(ctx, w, "failed to get free slots", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetFreeBusy handles GET /api/v1/members/{memberID}/busy?date=YYYY-MM-DD.
func (h *AvailabilityHandler) GetFreeBusy(w http.ResponseWriter, r *http.Request) {
	memberID := strings.TrimSpace(r.PathValue("memberID"))
	if memberID == "" {
		writeError(w, http.StatusBadRequest, "member ID is required")
		return
	}
	date, err := h.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := observability.WithMemberID(r.Context(), memberID)
	doc, err := h.freeBusy.FreeBusy(ctx, domain.MemberID(memberID), date)
	if err != nil {
		h.fail(ctx, w, "failed to load free/busy", err)
		return
	}

	resp := freeBusyResponse{
		MemberID: string(doc.MemberID),
		Date:     date.Format(domain.DateLayout),
		Busy:     make([]busyRangeResponse, 0, len(doc.Busy)),
	}
	for _, b := range doc.Busy {
		resp.Busy = append(resp.Busy, busyRangeResponse{Start: b.Start, End: b.End})
	}
	writeJSON(w, http.StatusOK, resp)
}

// FindMutualSlots handles GET /api/v1/slots?members=a,b&optional=c&date=YYYY-MM-DD.
// duration and buffer accept Go durations ("45m") or whole minutes.
func (h *AvailabilityHandler) FindMutualSlots(w http.ResponseWriter, r *http.Request) {
	members := parseListParam(r, "members")
	if len(members) == 0 {
		writeError(w, http.StatusBadRequest, "members is required")
		return
	}
	date, err := h.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	duration, err := parseDurationParam(r, "duration", h.defaults.Duration)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	buffer, err := parseDurationParam(r, "buffer", h.defaults.Buffer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.mutual.Handle(r.Context(), queries.FindMutualSlotsQuery{
		MemberIDs:         toMemberIDs(members),
		OptionalMemberIDs: toMemberIDs(parseListParam(r, "optional")),
		Date:              date,
		Duration:          duration,
		Buffer:            buffer,
		Policy:            h.defaults.Policy,
		Now:               h.now(),
	})
	if err != nil {
		h.fail(r.Context(), w, "failed to find mutual slots", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// dateParam reads ?date=, defaulting to today in UTC.
func (h *AvailabilityHandler) dateParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		now := h.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return domain.ParseDate(raw)
}

func (h *AvailabilityHandler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, observability.ErrorKey, err)
	}
	writeAPIError(w, apiErr)
}

// toAPIError maps availability errors to HTTP responses. Calendar failures are 502s.
func toAPIError(err error) *APIError {
	var fetchErr *domain.FetchError
	switch {
	// checked first: a malformed event may wrap ErrInvalidTimeRange
	case errors.As(err, &fetchErr):
		code := "provider_unavailable"
		if errors.Is(fetchErr, domain.ErrMalformedEvent) {
			code = "malformed_event"
		}
		return &APIError{
			Status:   http.StatusBadGateway,
			Code:     code,
			Message:  fetchErr.Error(),
			MemberID: string(fetchErr.MemberID),
		}
	case errors.Is(err, queries.ErrNoMembers),
		errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrInvalidTimeRange):
		return &APIError{Status: http.StatusBadRequest, Code: "bad_request", Message: err.Error()}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
	}
}

func parseListParam(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func toMemberIDs(raw []string) []domain.MemberID {
	ids := make([]domain.MemberID, 0, len(raw))
	for _, m := range raw {
		ids = append(ids, domain.MemberID(m))
	}
	return ids
}

func parseDurationParam(r *http.Request, key string, defaultVal time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(r.URL.Query().Get(key))
	if val == "" {
		return defaultVal, nil
	}
	if minutes, err := strconv.Atoi(val); err == nil {
		return time.Duration(minutes) * time.Minute, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, val)
	}
	return d, nil
}
