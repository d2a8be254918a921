package booking

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/freebusy/adapter/cli"
	"github.com/felixgeelhaar/freebusy/internal/availability/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <booking-id>",
	Short: "Cancel a booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CancelBookingHandler == nil {
			return errors.New("booking requires a configured database")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid booking ID: %w", err)
		}
		if err := app.CancelBookingHandler.Handle(cmd.Context(), commands.CancelBookingCommand{BookingID: id}); err != nil {
			return fmt.Errorf("failed to cancel booking: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Cancelled booking %s\n", id)
		return nil
	},
}
