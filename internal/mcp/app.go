package mcp

import (
	"github.com/felixgeelhaar/freebusy/adapter/api"
	"github.com/felixgeelhaar/freebusy/adapter/cli"
	"github.com/felixgeelhaar/freebusy/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container) *cli.App {
	cfg := container.Config
	return &cli.App{
		FindMutualSlotsHandler: container.FindMutualSlots,
		GetFreeSlotsHandler:    container.GetFreeSlots,
		Availability:           container.AvailabilityService,
		SetProfileHandler:      container.SetProfile,
		BookSlotHandler:        container.BookSlot,
		CancelBookingHandler:   container.CancelBooking,
		AddTimeOffHandler:      container.AddTimeOff,
		ConnectAccountHandler:  container.ConnectAccount,
		DisableAccountHandler:  container.DisableAccount,
		Health:                 container.Health,
		Metrics:                container.Metrics,
		Defaults: api.SlotDefaults{
			Duration: cfg.SlotDuration,
			Buffer:   cfg.SlotBuffer,
			Policy:   container.BookingPolicy(),
		},
		APIAddr: cfg.HealthAddr,
	}
}
