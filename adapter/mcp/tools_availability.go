package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/application/queries"
	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type memberDateInput struct {
	MemberID string `json:"member_id" jsonschema:"required"`
	Date     string `json:"date,omitempty"`
}

type slotsInput struct {
	MemberIDs         []string `json:"member_ids" jsonschema:"required"`
	OptionalMemberIDs []string `json:"optional_member_ids,omitempty"`
	Date              string   `json:"date,omitempty"`
	DurationMin       int      `json:"duration_min,omitempty"`
	BufferMin         int      `json:"buffer_min,omitempty"`
}

type busyRangeOutput struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type freeBusyOutput struct {
	MemberID string            `json:"member_id"`
	Date     string            `json:"date"`
	Busy     []busyRangeOutput `json:"busy"`
}

func registerAvailabilityTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("availability.free").
		Description("Get one member's free time on a date").
		Handler(func(ctx context.Context, input memberDateInput) (*queries.GetFreeSlotsResult, error) {
			if app == nil || app.GetFreeSlotsHandler == nil {
				return nil, errors.New("availability requires database connection")
			}
			date, err := parseDate(input.Date, time.Now())
			if err != nil {
				return nil, err
			}
			return app.GetFreeSlotsHandler.Handle(ctx, queries.GetFreeSlotsQuery{
				MemberID: domain.MemberID(input.MemberID),
				Date:     date,
			})
		})

	srv.Tool("availability.busy").
		Description("Get one member's busy ranges on a date from their calendar and bookings").
		Handler(func(ctx context.Context, input memberDateInput) (*freeBusyOutput, error) {
			if app == nil || app.Availability == nil {
				return nil, errors.New("availability requires database connection")
			}
			date, err := parseDate(input.Date, time.Now())
			if err != nil {
				return nil, err
			}
			doc, err := app.Availability.FreeBusy(ctx, domain.MemberID(input.MemberID), date)
			if err != nil {
				return nil, err
			}

			out := &freeBusyOutput{
				MemberID: string(doc.MemberID),
				Date:     date.Format(domain.DateLayout),
				Busy:     make([]busyRangeOutput, 0, len(doc.Busy)),
			}
			for _, b := range doc.Busy {
				out.Busy = append(out.Busy, busyRangeOutput{Start: b.Start, End: b.End})
			}
			return out, nil
		})

	srv.Tool("availability.slots").
		Description("Find slots on a date when every required member is free; optional members never narrow the result").
		Handler(func(ctx context.Context, input slotsInput) (*queries.FindMutualSlotsResult, error) {
			if app == nil || app.FindMutualSlotsHandler == nil {
				return nil, errors.New("availability requires database connection")
			}
			date, err := parseDate(input.Date, time.Now())
			if err != nil {
				return nil, err
			}
			return app.FindMutualSlotsHandler.Handle(ctx, queries.FindMutualSlotsQuery{
				MemberIDs:         toMemberIDs(input.MemberIDs),
				OptionalMemberIDs: toMemberIDs(input.OptionalMemberIDs),
				Date:              date,
				Duration:          minutesOr(input.DurationMin, app.Defaults.Duration),
				Buffer:            minutesOr(input.BufferMin, app.Defaults.Buffer),
				Policy:            app.Defaults.Policy,
			})
		})

	return nil
}
