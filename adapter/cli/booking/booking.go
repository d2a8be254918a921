// Package booking records and cancels booked slots.
package booking

import "github.com/spf13/cobra"

// Cmd is the booking command group.
var Cmd = &cobra.Command{
	Use:   "booking",
	Short: "Book and cancel slots",
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(cancelCmd)
}
