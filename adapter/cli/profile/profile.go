// Package profile manages member availability profiles.
package profile

import "github.com/spf13/cobra"

// Cmd is the profile command group.
var Cmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage member availability profiles",
}

func init() {
	Cmd.AddCommand(setCmd, timeOffCmd)
}
