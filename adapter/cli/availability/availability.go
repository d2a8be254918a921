// Package availability holds the free time commands.
package availability

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/application/queries"
	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/spf13/cobra"
)

// Cmd is the availability command group.
var Cmd = &cobra.Command{
	Use:     "availability",
	Aliases: []string{"avail"},
	Short:   "Query member availability",
	Long: `Query free time for one or more members.

Examples:
  freebusy availability free alice@example.com --date 2024-01-15
  freebusy availability busy alice@example.com --date 2024-01-15
  freebusy availability slots alice@example.com bob@example.com --duration 45m`,
}

var (
	dateFlag   string
	jsonOutput bool
	nowFunc    = time.Now
)

func init() {
	Cmd.PersistentFlags().StringVar(&dateFlag, "date", "", "date to query (YYYY-MM-DD, default today)")
	Cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON")

	Cmd.AddCommand(freeCmd)
	Cmd.AddCommand(busyCmd)
	Cmd.AddCommand(slotsCmd)
}

func queryDate() (time.Time, error) {
	if dateFlag == "" {
		now := nowFunc().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return domain.ParseDate(dateFlag)
}

func memberIDs(args []string) []domain.MemberID {
	ids := make([]domain.MemberID, 0, len(args))
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part != "" {
				ids = append(ids, domain.MemberID(part))
			}
		}
	}
	return ids
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSlots(w io.Writer, slots []queries.SlotDTO) {
	for _, s := range slots {
		fmt.Fprintf(w, "  %s - %s  (%d min)\n",
			s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339), s.DurationMin)
	}
}
