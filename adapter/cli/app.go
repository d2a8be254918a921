package cli

import (
	"log/slog"

	"github.com/felixgeelhaar/freebusy/adapter/api"
	availabilityCommands "github.com/felixgeelhaar/freebusy/internal/availability/application/commands"
	availabilityQueries "github.com/felixgeelhaar/freebusy/internal/availability/application/queries"
	availabilityServices "github.com/felixgeelhaar/freebusy/internal/availability/application/services"
	calendarCommands "github.com/felixgeelhaar/freebusy/internal/calendar/application/commands"
	"github.com/felixgeelhaar/freebusy/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	// Availability Query Handlers
	FindMutualSlotsHandler *availabilityQueries.FindMutualSlotsHandler
	GetFreeSlotsHandler    *availabilityQueries.GetFreeSlotsHandler

	// Free/busy lookups for a single member
	Availability *availabilityServices.AvailabilityService

	// Availability Command Handlers
	SetProfileHandler    *availabilityCommands.SetProfileHandler
	BookSlotHandler      *availabilityCommands.BookSlotHandler
	CancelBookingHandler *availabilityCommands.CancelBookingHandler
	AddTimeOffHandler    *availabilityCommands.AddTimeOffHandler

	// Calendar Command Handlers
	ConnectAccountHandler *calendarCommands.ConnectAccountHandler
	DisableAccountHandler *calendarCommands.DisableAccountHandler

	Health  *observability.HealthRegistry
	Metrics *observability.InMemoryMetrics

	Defaults api.SlotDefaults

	// APIAddr is where "serve" listens.
	APIAddr string
}

var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// NewAPIServer builds the HTTP API over the app's handlers.
func (a *App) NewAPIServer(cfg api.ServerConfig, logger *slog.Logger) *api.Server {
	handler := api.NewAvailabilityHandler(a.GetFreeSlotsHandler, a.FindMutualSlotsHandler, a.Availability, a.Defaults, logger)

	var health api.HealthReporter
	if a.Health != nil {
		health = a.Health
	}
	var metrics api.MetricsSnapshotter
	if a.Metrics != nil {
		metrics = a.Metrics
	}
	return api.NewServer(cfg, handler, health, metrics, logger)
}
