package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/application/commands"
	"github.com/felixgeelhaar/mcp-go"
)

type bookInput struct {
	MemberIDs []string `json:"member_ids" jsonschema:"required"`
	Start     string   `json:"start" jsonschema:"required"`
	End       string   `json:"end" jsonschema:"required"`
}

type cancelInput struct {
	BookingID string `json:"booking_id" jsonschema:"required"`
}

type bookingOutput struct {
	ID       string `json:"id"`
	MemberID string `json:"member_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

func registerBookingTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("booking.add").
		Description("Book a slot for members after checking each one is free").
		Handler(func(ctx context.Context, input bookInput) ([]bookingOutput, error) {
			if app == nil || app.BookSlotHandler == nil {
				return nil, errors.New("booking requires database connection")
			}
			start, err := parseInstant("start", input.Start)
			if err != nil {
				return nil, err
			}
			end, err := parseInstant("end", input.End)
			if err != nil {
				return nil, err
			}

			bookings, err := app.BookSlotHandler.Handle(ctx, commands.BookSlotCommand{
				MemberIDs: toMemberIDs(input.MemberIDs),
				Start:     start,
				End:       end,
			})
			if err != nil {
				return nil, err
			}

			out := make([]bookingOutput, 0, len(bookings))
			for _, b := range bookings {
				out = append(out, bookingOutput{
					ID:       b.ID.String(),
					MemberID: string(b.MemberID),
					Start:    b.Slot.Start.Format(time.RFC3339),
					End:      b.Slot.End.Format(time.RFC3339),
				})
			}
			return out, nil
		})

	srv.Tool("booking.cancel").
		Description("Cancel a booking").
		Handler(func(ctx context.Context, input cancelInput) (map[string]string, error) {
			if app == nil || app.CancelBookingHandler == nil {
				return nil, errors.New("booking requires database connection")
			}
			id, err := parseUUID(input.BookingID)
			if err != nil {
				return nil, err
			}
			if err := app.CancelBookingHandler.Handle(ctx, commands.CancelBookingCommand{BookingID: id}); err != nil {
				return nil, err
			}
			return map[string]string{"status": "cancelled", "booking_id": id.String()}, nil
		})

	return nil
}
