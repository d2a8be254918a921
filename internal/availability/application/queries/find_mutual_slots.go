package queries

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/felixgeelhaar/freebusy/pkg/observability"
)

// ErrNoMembers is returned when a query names no members.
var ErrNoMembers = errors.New("at least one member is required")

// SlotDTO is a data transfer object for a free or bookable range.
type SlotDTO struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	DurationMin int       `json:"duration_min"`
}

func toDTOs(ranges []domain.TimeRange) []SlotDTO {
	dtos := make([]SlotDTO, len(ranges))
	for i, r := range ranges {
		dtos[i] = SlotDTO{
			Start:       r.Start,
			End:         r.End,
			DurationMin: int(r.Duration().Minutes()),
		}
	}
	return dtos
}

// MutualFreeFinder computes the free time shared by members.
type MutualFreeFinder interface {
	MutualFreeSlots(ctx context.Context, memberIDs []domain.MemberID, date time.Time) (domain.FreeSlotSet, error)
}

// FindMutualSlotsQuery contains the parameters for finding bookable slots for a group.
// MemberIDs are mandatory. OptionalMemberIDs are echoed back but never constrain the
// result; a member named in both lists is mandatory.
type FindMutualSlotsQuery struct {
	MemberIDs         []domain.MemberID
	OptionalMemberIDs []domain.MemberID
	Date      time.Time
	Duration  time.Duration
	Buffer    time.Duration
	Policy    domain.BookingPolicy
	// Now defaults to the current time.
	Now time.Time
}

// FindMutualSlotsResult is the outcome for one date. When the date cannot be booked,
// Valid is false and NextDate/PreviousDate point at the nearest dates that can.
type FindMutualSlotsResult struct {
	Date             time.Time      `json:"date"`
	Valid            bool           `json:"valid"`
	FrequencyReached bool           `json:"frequency_reached"`
	OnTimeOff        bool           `json:"on_time_off"`
	AvailableDays    []time.Weekday `json:"available_days"`
	Free             []SlotDTO      `json:"free"`
	Slots            []SlotDTO      `json:"slots"`
	NextDate         time.Time      `json:"next_date,omitzero"`
	PreviousDate     time.Time      `json:"previous_date,omitzero"`

	// OptionalMembers were invited but did not constrain the slots.
	OptionalMembers []domain.MemberID `json:"optional_members"`
}

// FindMutualSlotsHandler handles the FindMutualSlotsQuery.
type FindMutualSlotsHandler struct {
	finder   MutualFreeFinder
	profiles domain.ProfileRepository
	bookings domain.BookingRepository
	timeOff  domain.TimeOffRepository
	metrics  observability.Metrics
}

// NewFindMutualSlotsHandler creates a new FindMutualSlotsHandler. bookings and metrics may be nil.
func NewFindMutualSlotsHandler(
	finder MutualFreeFinder,
	profiles domain.ProfileRepository,
	bookings domain.BookingRepository,
	metrics observability.Metrics,
) *FindMutualSlotsHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &FindMutualSlotsHandler{
		finder:   finder,
		profiles: profiles,
		bookings: bookings,
		metrics:  metrics,
	}
}

// WithTimeOff makes leave and holidays of mandatory members empty the result.
func (h *FindMutualSlotsHandler) WithTimeOff(repo domain.TimeOffRepository) *FindMutualSlotsHandler {
	h.timeOff = repo
	return h
}

// Handle executes the FindMutualSlotsQuery.
func (h *FindMutualSlotsHandler) Handle(ctx context.Context, query FindMutualSlotsQuery) (*FindMutualSlotsResult, error) {
	memberIDs := uniqueMembers(query.MemberIDs)
	if len(memberIDs) == 0 {
		return nil, ErrNoMembers
	}
	if query.Duration <= 0 {
		return nil, domain.ErrInvalidDuration
	}
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}

	profiles, err := h.loadProfiles(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	check := domain.CheckAvailableDays(
		query.Policy.ValidateDate(query.Date, now.UTC()),
		query.Date,
		domain.SharedWeekdays(profiles),
	)
	result := &FindMutualSlotsResult{
		Date:          query.Date,
		Valid:         !check.InvalidDate,
		AvailableDays: check.AvailableDays,
		Free:          []SlotDTO{},
		Slots:         []SlotDTO{},
		NextDate:      check.Validation.NextValidDate,
		PreviousDate:  check.Validation.PrevValidDate,

		OptionalMembers: optionalOnly(query.OptionalMemberIDs, memberIDs),
	}
	if !result.Valid {
		return result, nil
	}

	off, err := h.anyOnTimeOff(ctx, memberIDs, query.Date)
	if err != nil {
		return nil, err
	}
	if off {
		result.OnTimeOff = true
		return result, nil
	}

	reached, err := h.frequencyReached(ctx, query.Policy, profiles, query.Date)
	if err != nil {
		return nil, err
	}
	if reached {
		result.FrequencyReached = true
		return result, nil
	}

	free, err := h.finder.MutualFreeSlots(ctx, memberIDs, query.Date)
	if err != nil {
		return nil, err
	}
	result.Free = toDTOs(free)

	group, ok := domain.GroupWindow(profiles, query.Date)
	if !ok {
		return result, nil
	}
	slots, err := domain.SliceSlots(group, free, domain.SlotRules{
		Duration: query.Duration,
		Buffer:   query.Buffer,
		Now:      now,
	})
	if err != nil {
		return nil, err
	}
	result.Slots = toDTOs(slots)
	h.metrics.Histogram(observability.MetricSlotsOffered, float64(len(slots)))
	return result, nil
}

// loadProfiles returns one profile per member. Members without a profile get an
// empty one, which shares no weekday with anybody.
func (h *FindMutualSlotsHandler) loadProfiles(ctx context.Context, memberIDs []domain.MemberID) ([]*domain.MemberProfile, error) {
	profiles := make([]*domain.MemberProfile, 0, len(memberIDs))
	for _, id := range memberIDs {
		p, err := h.profiles.FindByMemberID(ctx, id)
		if errors.Is(err, domain.ErrProfileNotFound) {
			p = &domain.MemberProfile{MemberID: id}
		} else if err != nil {
			return nil, fmt.Errorf("load profile for %s: %w", id, err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// frequencyReached reports whether any member already holds the policy's daily
// maximum of bookings on date.
func (h *FindMutualSlotsHandler) frequencyReached(ctx context.Context, policy domain.BookingPolicy, profiles []*domain.MemberProfile, date time.Time) (bool, error) {
	if h.bookings == nil || policy.MaxBookingsPerDay <= 0 {
		return false, nil
	}
	for _, p := range profiles {
		booked, err := h.bookings.ListForMember(ctx, p.MemberID, domain.DayBounds(date, p.Location()))
		if err != nil {
			return false, fmt.Errorf("count bookings for %s: %w", p.MemberID, err)
		}
		if policy.FrequencyReached(len(booked)) {
			return true, nil
		}
	}
	return false, nil
}

func (h *FindMutualSlotsHandler) anyOnTimeOff(ctx context.Context, memberIDs []domain.MemberID, date time.Time) (bool, error) {
	if h.timeOff == nil {
		return false, nil
	}
	for _, id := range memberIDs {
		off, err := h.timeOff.IsOff(ctx, id, date)
		if err != nil {
			return false, fmt.Errorf("load time off for %s: %w", id, err)
		}
		if off {
			return true, nil
		}
	}
	return false, nil
}

// optionalOnly drops optional members that are also mandatory.
func optionalOnly(optional, mandatory []domain.MemberID) []domain.MemberID {
	out := make([]domain.MemberID, 0, len(optional))
	for _, id := range uniqueMembers(optional) {
		if !slices.ContainsFunc(mandatory, func(m domain.MemberID) bool { return m.Matches(string(id)) }) {
			out = append(out, id)
		}
	}
	return out
}

func uniqueMembers(ids []domain.MemberID) []domain.MemberID {
	out := make([]domain.MemberID, 0, len(ids))
	for _, id := range ids {
		dup := false
		for _, seen := range out {
			if seen.Matches(string(id)) {
				dup = true
				break
			}
		}
		if !dup && id != "" {
			out = append(out, id)
		}
	}
	return out
}
