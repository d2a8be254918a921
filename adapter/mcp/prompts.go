package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common scheduling workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("find_meeting_time").
		Description("Find and book a time that works for a group of members.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			members := strings.TrimSpace(args["members"])
			if members == "" {
				members = "the members I name"
			}
			return &mcp.PromptResult{
				Description: "Find a Meeting Time",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Find a meeting time for ` + members + `.

1. Read freebusy://settings for the default slot length and booking window.
2. Call availability.slots for the requested date.
3. If the date is not valid, retry with next_date from the result.
4. If frequency_reached is true, the date is fully booked; try the next day.
5. Offer me up to three slots and wait for my choice.
6. Book the chosen slot with booking.add.

If a call fails with a provider error, tell me whose calendar could not be
read instead of guessing their availability.`,
						},
					},
				},
			}, nil
		})

	return nil
}
