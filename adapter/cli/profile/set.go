package profile

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/freebusy/adapter/cli"
	"github.com/felixgeelhaar/freebusy/internal/availability/application/commands"
	"github.com/spf13/cobra"
)

var (
	windowSpecs []string
	accountRef  string
	timeZone    string
	disabled    bool
)

var setCmd = &cobra.Command{
	Use:   "set <member>",
	Short: "Set a member's weekly windows and calendar",
	Long: `Replace a member's availability profile.

Windows are given per weekday as day=HH:MM-HH:MM, at most one per day.

Examples:
  freebusy profile set alice@example.com --window mon=09:00-17:00 --window tue=09:00-12:00
  freebusy profile set bob@example.com --window fri=10:00-16:00 --tz Europe/Berlin --account <account-id>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SetProfileHandler == nil {
			return errors.New("profiles require a configured database")
		}

		windows := make([]commands.WindowInput, 0, len(windowSpecs))
		for _, spec := range windowSpecs {
			w, err := commands.ParseWindowSpec(spec)
			if err != nil {
				return err
			}
			windows = append(windows, w)
		}

		profile, err := app.SetProfileHandler.Handle(cmd.Context(), commands.SetProfileCommand{
			MemberID:           args[0],
			CalendarAccountRef: accountRef,
			Windows:            windows,
			SchedulingEnabled:  !disabled,
			TimeZone:           timeZone,
		})
		if err != nil {
			return fmt.Errorf("failed to set profile: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Profile saved for %s (%s)\n", profile.MemberID, profile.Location())
		for _, w := range profile.WeeklyWindows {
			fmt.Fprintf(out, "  %-9s %s-%s\n", w.Weekday, w.Start, w.End)
		}
		if profile.HasCalendar() {
			fmt.Fprintf(out, "  calendar account %s\n", profile.CalendarAccountRef)
		}
		if !profile.SchedulingEnabled {
			fmt.Fprintln(out, "  scheduling disabled")
		}
		return nil
	},
}

func init() {
	setCmd.Flags().StringArrayVarP(&windowSpecs, "window", "w", nil, "weekly window as day=HH:MM-HH:MM (repeatable)")
	setCmd.Flags().StringVar(&accountRef, "account", "", "calendar account ID to merge busy time from")
	setCmd.Flags().StringVar(&timeZone, "tz", "UTC", "IANA time zone of the windows")
	setCmd.Flags().BoolVar(&disabled, "disabled", false, "turn scheduling off for this member")
}
