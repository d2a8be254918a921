package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/freebusy/adapter/cli"
	"github.com/felixgeelhaar/freebusy/internal/availability/application/commands"
	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/spf13/cobra"
)

var (
	members  []string
	startStr string
	endStr   string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Book a slot for one or more members",
	Long: `Book a slot. Every member's free/busy is checked first; if any member
is busy, or their calendar cannot be read, nothing is booked.

Example:
  freebusy booking add -m alice@example.com -m bob@example.com \
    --start 2024-01-15T10:00:00Z --end 2024-01-15T11:00:00Z`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BookSlotHandler == nil {
			return errors.New("booking requires a configured database")
		}

		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}

		ids := make([]domain.MemberID, 0, len(members))
		for _, m := range members {
			ids = append(ids, domain.MemberID(m))
		}

		bookings, err := app.BookSlotHandler.Handle(cmd.Context(), commands.BookSlotCommand{
			MemberIDs: ids,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return fmt.Errorf("failed to book slot: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, b := range bookings {
			fmt.Fprintf(out, "Booked %s for %s (%s)\n", b.Slot, b.MemberID, b.ID)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringSliceVarP(&members, "member", "m", nil, "member to book (repeatable)")
	addCmd.Flags().StringVar(&startStr, "start", "", "slot start (RFC 3339)")
	addCmd.Flags().StringVar(&endStr, "end", "", "slot end (RFC 3339)")
	_ = addCmd.MarkFlagRequired("member")
	_ = addCmd.MarkFlagRequired("start")
	_ = addCmd.MarkFlagRequired("end")
}
