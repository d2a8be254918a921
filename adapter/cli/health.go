package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/freebusy/adapter/api"
	"github.com/felixgeelhaar/freebusy/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health [component]",
	Short: "Run health checks and print the result",
	Long: `Run every registered health check, or only the named one
(database, redis, calendar_breakers).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Health == nil {
			return errors.New("app not initialized")
		}

		var (
			status observability.HealthStatus
			out    []byte
			err    error
		)
		if len(args) == 1 {
			result, ok := app.Health.CheckOne(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("unknown health check %q", args[0])
			}
			status = result.Status
			out, err = json.Marshal(result)
		} else {
			overall := app.Health.GetOverallHealth(cmd.Context())
			status = overall.Status
			out, err = overall.ToJSON()
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		if status == observability.HealthStatusUnhealthy {
			return errors.New("unhealthy")
		}
		return nil
	},
}

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the availability HTTP API",
	Long: `Serve read-only availability over HTTP.

Endpoints:
  GET /health
  GET /metrics
  GET /api/v1/members/{member}/free?date=YYYY-MM-DD
  GET /api/v1/members/{member}/busy?date=YYYY-MM-DD
  GET /api/v1/slots?members=a,b&optional=c&date=YYYY-MM-DD&duration=30m&buffer=10m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errors.New("app not initialized")
		}

		cfg := api.DefaultServerConfig()
		switch {
		case serveAddr != "":
			cfg.Addr = serveAddr
		case app.APIAddr != "":
			cfg.Addr = app.APIAddr
		}

		server := app.NewAPIServer(cfg, logger)
		return runUntilDone(cmd.Context(), server)
	},
}

func runUntilDone(ctx context.Context, server *api.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default HEALTH_ADDR)")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(serveCmd)
}
