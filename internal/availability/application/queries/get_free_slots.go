package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
)

// MemberFreeFinder computes one member's free time.
type MemberFreeFinder interface {
	MemberFreeSlots(ctx context.Context, memberID domain.MemberID, date time.Time) (domain.FreeSlotSet, error)
}

// GetFreeSlotsQuery asks for one member's free time on a date.
type GetFreeSlotsQuery struct {
	MemberID domain.MemberID
	Date     time.Time
}

// GetFreeSlotsResult lists the member's free ranges in ascending order.
type GetFreeSlotsResult struct {
	MemberID domain.MemberID `json:"member_id"`
	Date     time.Time       `json:"date"`
	Free     []SlotDTO       `json:"free"`
	TotalMin int             `json:"total_min"`
}

// GetFreeSlotsHandler handles the GetFreeSlotsQuery.
type GetFreeSlotsHandler struct {
	finder MemberFreeFinder
}

// NewGetFreeSlotsHandler creates a new GetFreeSlotsHandler.
func NewGetFreeSlotsHandler(finder MemberFreeFinder) *GetFreeSlotsHandler {
	return &GetFreeSlotsHandler{finder: finder}
}

// Handle executes the GetFreeSlotsQuery.
func (h *GetFreeSlotsHandler) Handle(ctx context.Context, query GetFreeSlotsQuery) (*GetFreeSlotsResult, error) {
	if query.MemberID == "" {
		return nil, ErrNoMembers
	}
	free, err := h.finder.MemberFreeSlots(ctx, query.MemberID, query.Date)
	if err != nil {
		return nil, err
	}
	return &GetFreeSlotsResult{
		MemberID: query.MemberID,
		Date:     query.Date,
		Free:     toDTOs(free),
		TotalMin: int(free.Total().Minutes()),
	}, nil
}
