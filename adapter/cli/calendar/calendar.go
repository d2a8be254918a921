// Package calendar links and unlinks external calendars.
package calendar

import "github.com/spf13/cobra"

// Cmd is the calendar command group.
var Cmd = &cobra.Command{
	Use:   "calendar",
	Short: "Manage linked calendar accounts",
}

func init() {
	Cmd.AddCommand(connectCmd)
	Cmd.AddCommand(disableCmd)
}
