package commands

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/google/uuid"
)

// TimeOffWriter records leave and holidays.
type TimeOffWriter interface {
	Add(ctx context.Context, off domain.TimeOff) (uuid.UUID, error)
}

// AddTimeOffCommand blocks whole dates for a member. Dates are YYYY-MM-DD and To
// defaults to From.
type AddTimeOffCommand struct {
	MemberID string
	From     string
	To       string
	Reason   string
}

// AddTimeOffHandler handles the AddTimeOffCommand.
type AddTimeOffHandler struct {
	timeOff TimeOffWriter
}

// NewAddTimeOffHandler creates a new AddTimeOffHandler.
func NewAddTimeOffHandler(timeOff TimeOffWriter) *AddTimeOffHandler {
	return &AddTimeOffHandler{timeOff: timeOff}
}

// Handle validates the period and stores it.
func (h *AddTimeOffHandler) Handle(ctx context.Context, cmd AddTimeOffCommand) (uuid.UUID, domain.TimeOff, error) {
	from, err := domain.ParseDate(cmd.From)
	if err != nil {
		return uuid.Nil, domain.TimeOff{}, err
	}
	to := from
	if strings.TrimSpace(cmd.To) != "" {
		if to, err = domain.ParseDate(cmd.To); err != nil {
			return uuid.Nil, domain.TimeOff{}, err
		}
	}
	off, err := domain.NewTimeOff(domain.MemberID(strings.TrimSpace(cmd.MemberID)), from, to, strings.TrimSpace(cmd.Reason))
	if err != nil {
		return uuid.Nil, domain.TimeOff{}, err
	}
	id, err := h.timeOff.Add(ctx, off)
	if err != nil {
		return uuid.Nil, domain.TimeOff{}, err
	}
	return id, off, nil
}
