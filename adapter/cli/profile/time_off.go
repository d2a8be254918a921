package profile

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/freebusy/adapter/cli"
	"github.com/felixgeelhaar/freebusy/internal/availability/application/commands"
	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/spf13/cobra"
)

var (
	offFrom   string
	offTo     string
	offReason string
)

var timeOffCmd = &cobra.Command{
	Use:   "time-off <member>",
	Short: "Block whole dates for a member",
	Long: `Record leave or a holiday. While a mandatory member is off, group
slot queries for that date return no slots.

Examples:
  freebusy profile time-off alice@example.com --from 2024-12-24 --to 2024-12-26 --reason holidays`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.AddTimeOffHandler == nil {
			return errors.New("time off requires a configured database")
		}
		id, off, err := app.AddTimeOffHandler.Handle(cmd.Context(), commands.AddTimeOffCommand{
			MemberID: args[0],
			From:     offFrom,
			To:       offTo,
			Reason:   offReason,
		})
		if err != nil {
			return fmt.Errorf("failed to add time off: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Time off %s for %s: %s to %s\n",
			id, off.MemberID, off.From.Format(domain.DateLayout), off.To.Format(domain.DateLayout))
		return nil
	},
}

func init() {
	timeOffCmd.Flags().StringVar(&offFrom, "from", "", "first day off (YYYY-MM-DD)")
	timeOffCmd.Flags().StringVar(&offTo, "to", "", "last day off, defaults to --from")
	timeOffCmd.Flags().StringVar(&offReason, "reason", "", "leave or holiday name")
	_ = timeOffCmd.MarkFlagRequired("from")
}
