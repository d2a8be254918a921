package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/freebusy/pkg/observability"
	"github.com/felixgeelhaar/mcp-go"
)

func registerSystemTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("system.health").
		Description("Run health checks for the database, cache and calendar providers").
		Handler(func(ctx context.Context, input struct{}) (*observability.OverallHealth, error) {
			if app == nil || app.Health == nil {
				return nil, errors.New("app not initialized")
			}
			overall := app.Health.GetOverallHealth(ctx)
			return &overall, nil
		})

	srv.Tool("system.metrics").
		Description("Snapshot fetch, cache and slot metrics").
		Handler(func(ctx context.Context, input struct{}) (*observability.MetricsSnapshot, error) {
			if app == nil || app.Metrics == nil {
				return nil, errors.New("metrics are not recorded")
			}
			snap := app.Metrics.Snapshot()
			return &snap, nil
		})

	return nil
}
