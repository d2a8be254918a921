package calendar

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/freebusy/adapter/cli"
	"github.com/felixgeelhaar/freebusy/internal/calendar/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var disableCmd = &cobra.Command{
	Use:   "disable <account-id>",
	Short: "Stop merging a calendar account",
	Long: `Disable a linked account. Members referencing it are treated as having
no calendar, so only their weekly windows and bookings apply.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.DisableAccountHandler == nil {
			return errors.New("calendar linking requires a configured database")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid account ID: %w", err)
		}
		if err := app.DisableAccountHandler.Handle(cmd.Context(), commands.DisableAccountCommand{AccountID: id}); err != nil {
			return fmt.Errorf("failed to disable account: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Disabled calendar account %s\n", id)
		return nil
	},
}
