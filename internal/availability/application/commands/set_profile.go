package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
)

// WindowInput is one weekly window as entered by an operator.
type WindowInput struct {
	Weekday string
	Start   string
	End     string
}

// SetProfileCommand replaces a member's availability profile.
type SetProfileCommand struct {
	MemberID           string
	CalendarAccountRef string
	Windows            []WindowInput
	SchedulingEnabled  bool
	TimeZone           string
}

// ProfileWriter persists member profiles.
type ProfileWriter interface {
	Save(ctx context.Context, profile *domain.MemberProfile) error
}

// ProfileInvalidator drops cached copies of a profile.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, id domain.MemberID) error
}

// SetProfileHandler handles the SetProfileCommand.
type SetProfileHandler struct {
	profiles ProfileWriter
	cache    ProfileInvalidator
	logger   *slog.Logger
}

// NewSetProfileHandler creates a new SetProfileHandler. cache and logger may be nil.
func NewSetProfileHandler(profiles ProfileWriter, cache ProfileInvalidator, logger *slog.Logger) *SetProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SetProfileHandler{profiles: profiles, cache: cache, logger: logger}
}

// Handle executes the SetProfileCommand.
func (h *SetProfileHandler) Handle(ctx context.Context, cmd SetProfileCommand) (*domain.MemberProfile, error) {
	profile := &domain.MemberProfile{
		MemberID:           domain.MemberID(strings.TrimSpace(cmd.MemberID)),
		CalendarAccountRef: strings.TrimSpace(cmd.CalendarAccountRef),
		SchedulingEnabled:  cmd.SchedulingEnabled,
		TimeZone:           strings.TrimSpace(cmd.TimeZone),
	}
	for _, in := range cmd.Windows {
		w, err := parseWindowInput(in)
		if err != nil {
			return nil, err
		}
		profile.WeeklyWindows = append(profile.WeeklyWindows, w)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	if err := h.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile for %s: %w", profile.MemberID, err)
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, profile.MemberID); err != nil {
			h.logger.WarnContext(ctx, "failed to invalidate cached profile", "member_id", profile.MemberID, "error", err)
		}
	}
	return profile, nil
}

func parseWindowInput(in WindowInput) (domain.WeeklyWindow, error) {
	day, err := domain.ParseWeekday(in.Weekday)
	if err != nil {
		return domain.WeeklyWindow{}, err
	}
	start, err := domain.ParseTimeOfDay(in.Start)
	if err != nil {
		return domain.WeeklyWindow{}, err
	}
	end, err := domain.ParseTimeOfDay(in.End)
	if err != nil {
		return domain.WeeklyWindow{}, err
	}
	return domain.WeeklyWindow{Weekday: day, Start: start, End: end}, nil
}

// ParseWindowSpec parses "mon=09:00-17:00" into a WindowInput.
func ParseWindowSpec(spec string) (WindowInput, error) {
	day, span, ok := strings.Cut(strings.TrimSpace(spec), "=")
	if !ok {
		return WindowInput{}, fmt.Errorf("invalid window %q, use day=HH:MM-HH:MM", spec)
	}
	start, end, ok := strings.Cut(span, "-")
	if !ok {
		return WindowInput{}, fmt.Errorf("invalid window %q, use day=HH:MM-HH:MM", spec)
	}
	return WindowInput{Weekday: day, Start: start, End: end}, nil
}
