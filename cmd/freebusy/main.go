package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/freebusy/adapter/cli"
	"github.com/felixgeelhaar/freebusy/adapter/cli/availability"
	"github.com/felixgeelhaar/freebusy/adapter/cli/booking"
	"github.com/felixgeelhaar/freebusy/adapter/cli/calendar"
	"github.com/felixgeelhaar/freebusy/adapter/cli/mcp"
	"github.com/felixgeelhaar/freebusy/adapter/cli/profile"
	"github.com/felixgeelhaar/freebusy/internal/app"
	mcpinternal "github.com/felixgeelhaar/freebusy/internal/mcp"
	"github.com/felixgeelhaar/freebusy/pkg/config"
	"github.com/felixgeelhaar/freebusy/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger = observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cli.Version))
	cli.SetLogger(logger)

	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// version and help still work without storage
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cliApp = mcpinternal.NewCLIApp(container)
	}
	cli.SetApp(cliApp)

	cli.AddCommand(availability.Cmd)
	cli.AddCommand(profile.Cmd)
	cli.AddCommand(booking.Cmd)
	cli.AddCommand(calendar.Cmd)
	cli.AddCommand(mcp.Cmd)

	if err := cli.RootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
