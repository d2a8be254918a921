package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers read-only status resources.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("freebusy://health").
		Name("Health").
		Description("Health of the database, cache and calendar provider circuits").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.Health == nil {
				return nil, fmt.Errorf("health requires initialization")
			}
			return jsonResource(uri, app.Health.GetOverallHealth(ctx))
		})

	srv.Resource("freebusy://settings").
		Name("Slot Settings").
		Description("Default slot length, buffer and booking window").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil {
				return nil, fmt.Errorf("settings require initialization")
			}
			policy := app.Defaults.Policy
			return jsonResource(uri, map[string]any{
				"slot_duration_min":        int(app.Defaults.Duration.Minutes()),
				"slot_buffer_min":          int(app.Defaults.Buffer.Minutes()),
				"minimum_notice_days":      policy.MinimumNoticeDays,
				"availability_window_days": policy.AvailabilityWindowDays,
				"max_bookings_per_day":     policy.MaxBookingsPerDay,
			})
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
