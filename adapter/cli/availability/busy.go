package availability

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/freebusy/adapter/cli"
	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/spf13/cobra"
)

type busyRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

var busyCmd = &cobra.Command{
	Use:   "busy <member>",
	Short: "Show a member's busy time",
	Long: `Show the busy ranges a member's calendar and bookings report for a day.

A failed lookup is reported as an error; booking treats such a member as busy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Availability == nil {
			return errors.New("availability requires a configured database")
		}
		date, err := queryDate()
		if err != nil {
			return err
		}

		doc, err := app.Availability.FreeBusy(cmd.Context(), domain.MemberID(args[0]), date)
		if err != nil {
			return fmt.Errorf("failed to load free/busy: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			ranges := make([]busyRange, 0, len(doc.Busy))
			for _, b := range doc.Busy {
				ranges = append(ranges, busyRange{Start: b.Start, End: b.End})
			}
			return printJSON(out, map[string]any{
				"member_id": doc.MemberID,
				"date":      date.Format(domain.DateLayout),
				"busy":      ranges,
			})
		}
		if len(doc.Busy) == 0 {
			fmt.Fprintf(out, "%s has nothing booked on %s\n", doc.MemberID, date.Format(domain.DateLayout))
			return nil
		}
		fmt.Fprintf(out, "%s is busy on %s:\n", doc.MemberID, date.Format(domain.DateLayout))
		for _, b := range doc.Busy {
			fmt.Fprintf(out, "  %s\n", b)
		}
		return nil
	},
}
