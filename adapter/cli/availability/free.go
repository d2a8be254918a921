package availability

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/freebusy/adapter/cli"
	"github.com/felixgeelhaar/freebusy/internal/availability/application/queries"
	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/spf13/cobra"
)

var freeCmd = &cobra.Command{
	Use:   "free <member>",
	Short: "Show a member's free time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetFreeSlotsHandler == nil {
			return errors.New("availability requires a configured database")
		}
		date, err := queryDate()
		if err != nil {
			return err
		}

		result, err := app.GetFreeSlotsHandler.Handle(cmd.Context(), queries.GetFreeSlotsQuery{
			MemberID: domain.MemberID(args[0]),
			Date:     date,
		})
		if err != nil {
			return fmt.Errorf("failed to get free time: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, result)
		}
		if len(result.Free) == 0 {
			fmt.Fprintf(out, "%s has no free time on %s\n", result.MemberID, date.Format(domain.DateLayout))
			return nil
		}
		fmt.Fprintf(out, "%s is free %d min on %s:\n", result.MemberID, result.TotalMin, date.Format(domain.DateLayout))
		printSlots(out, result.Free)
		return nil
	},
}
