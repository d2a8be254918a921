package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/freebusy/internal/availability/application/commands"
	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	calendarCommands "github.com/felixgeelhaar/freebusy/internal/calendar/application/commands"
	"github.com/felixgeelhaar/mcp-go"
)

type profileSetInput struct {
	MemberID  string   `json:"member_id" jsonschema:"required"`
	Windows   []string `json:"windows" jsonschema:"required"`
	TimeZone  string   `json:"time_zone,omitempty"`
	AccountID string   `json:"account_id,omitempty"`
	Disabled  bool     `json:"disabled,omitempty"`
}

type windowOutput struct {
	Weekday string `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type profileOutput struct {
	MemberID          string         `json:"member_id"`
	TimeZone          string         `json:"time_zone"`
	AccountID         string         `json:"account_id,omitempty"`
	SchedulingEnabled bool           `json:"scheduling_enabled"`
	Windows           []windowOutput `json:"windows"`
}

type timeOffInput struct {
	MemberID string `json:"member_id" jsonschema:"required"`
	From     string `json:"from" jsonschema:"required"`
	To       string `json:"to,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type timeOffOutput struct {
	ID       string `json:"id"`
	MemberID string `json:"member_id"`
	From     string `json:"from"`
	To       string `json:"to"`
}

type accountInput struct {
	AccountID string `json:"account_id" jsonschema:"required"`
}

func registerProfileTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("profile.set").
		Description("Replace a member's weekly windows (day=HH:MM-HH:MM), time zone and calendar account").
		Handler(func(ctx context.Context, input profileSetInput) (*profileOutput, error) {
			if app == nil || app.SetProfileHandler == nil {
				return nil, errors.New("profiles require database connection")
			}
			windows := make([]commands.WindowInput, 0, len(input.Windows))
			for _, spec := range input.Windows {
				w, err := commands.ParseWindowSpec(spec)
				if err != nil {
					return nil, err
				}
				windows = append(windows, w)
			}

			profile, err := app.SetProfileHandler.Handle(ctx, commands.SetProfileCommand{
				MemberID:           input.MemberID,
				CalendarAccountRef: input.AccountID,
				Windows:            windows,
				SchedulingEnabled:  !input.Disabled,
				TimeZone:           input.TimeZone,
			})
			if err != nil {
				return nil, err
			}

			out := &profileOutput{
				MemberID:          string(profile.MemberID),
				TimeZone:          profile.Location().String(),
				AccountID:         profile.CalendarAccountRef,
				SchedulingEnabled: profile.SchedulingEnabled,
				Windows:           make([]windowOutput, 0, len(profile.WeeklyWindows)),
			}
			for _, w := range profile.WeeklyWindows {
				out.Windows = append(out.Windows, windowOutput{
					Weekday: w.Weekday.String(),
					Start:   w.Start.String(),
					End:     w.End.String(),
				})
			}
			return out, nil
		})

	srv.Tool("profile.time_off").
		Description("Block whole dates (YYYY-MM-DD) for a member on leave or holiday").
		Handler(func(ctx context.Context, input timeOffInput) (*timeOffOutput, error) {
			if app == nil || app.AddTimeOffHandler == nil {
				return nil, errors.New("time off requires database connection")
			}
			id, off, err := app.AddTimeOffHandler.Handle(ctx, commands.AddTimeOffCommand{
				MemberID: input.MemberID,
				From:     input.From,
				To:       input.To,
				Reason:   input.Reason,
			})
			if err != nil {
				return nil, err
			}
			return &timeOffOutput{
				ID:       id.String(),
				MemberID: string(off.MemberID),
				From:     off.From.Format(domain.DateLayout),
				To:       off.To.Format(domain.DateLayout),
			}, nil
		})

	srv.Tool("calendar.disable").
		Description("Stop merging a linked calendar account").
		Handler(func(ctx context.Context, input accountInput) (map[string]string, error) {
			if app == nil || app.DisableAccountHandler == nil {
				return nil, errors.New("calendar accounts require database connection")
			}
			id, err := parseUUID(input.AccountID)
			if err != nil {
				return nil, err
			}
			if err := app.DisableAccountHandler.Handle(ctx, calendarCommands.DisableAccountCommand{AccountID: id}); err != nil {
				return nil, err
			}
			return map[string]string{"status": "disabled", "account_id": id.String()}, nil
		})

	return nil
}
