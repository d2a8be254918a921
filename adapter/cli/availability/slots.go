package availability

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/freebusy/adapter/cli"
	"github.com/felixgeelhaar/freebusy/internal/availability/application/queries"
	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/spf13/cobra"
)

var (
	slotDuration time.Duration
	slotBuffer   time.Duration
	optional     []string
)

var slotsCmd = &cobra.Command{
	Use:   "slots <member> [member...]",
	Short: "Find slots every member is free for",
	Long: `Find bookable slots shared by all members.

Members may be given as separate arguments or comma separated. A provider
failure for any member fails the whole query. Members passed with --optional
are invited but never narrow the slots.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.FindMutualSlotsHandler == nil {
			return errors.New("availability requires a configured database")
		}
		date, err := queryDate()
		if err != nil {
			return err
		}

		duration := app.Defaults.Duration
		if cmd.Flags().Changed("duration") {
			duration = slotDuration
		}
		buffer := app.Defaults.Buffer
		if cmd.Flags().Changed("buffer") {
			buffer = slotBuffer
		}

		result, err := app.FindMutualSlotsHandler.Handle(cmd.Context(), queries.FindMutualSlotsQuery{
			MemberIDs:         memberIDs(args),
			OptionalMemberIDs: memberIDs(optional),
			Date:              date,
			Duration:          duration,
			Buffer:            buffer,
			Policy:            app.Defaults.Policy,
			Now:               nowFunc(),
		})
		if err != nil {
			return fmt.Errorf("failed to find slots: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, result)
		}

		day := date.Format(domain.DateLayout)
		switch {
		case !result.Valid:
			fmt.Fprintf(out, "%s is not bookable.\n", day)
			if !result.NextDate.IsZero() {
				fmt.Fprintf(out, "Next bookable date: %s\n", result.NextDate.Format(domain.DateLayout))
			}
		case result.OnTimeOff:
			fmt.Fprintf(out, "A required member is off on %s.\n", day)
		case result.FrequencyReached:
			fmt.Fprintf(out, "%s is fully booked.\n", day)
		case len(result.Slots) == 0:
			fmt.Fprintf(out, "No shared %s slots on %s.\n", duration, day)
		default:
			fmt.Fprintf(out, "%d slot(s) on %s:\n", len(result.Slots), day)
			printSlots(out, result.Slots)
		}
		return nil
	},
}

func init() {
	slotsCmd.Flags().DurationVar(&slotDuration, "duration", 30*time.Minute, "slot length")
	slotsCmd.Flags().DurationVar(&slotBuffer, "buffer", 0, "gap between slots")
	slotsCmd.Flags().StringSliceVar(&optional, "optional", nil, "members whose calendars are ignored")
}
