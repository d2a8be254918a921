package commands

import (
	"context"

	"github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	"github.com/google/uuid"
)

// DisableAccountCommand stops an account from contributing busy time.
type DisableAccountCommand struct {
	AccountID uuid.UUID
}

// DisableAccountHandler handles the DisableAccountCommand.
type DisableAccountHandler struct {
	accounts domain.AccountRepository
}

// NewDisableAccountHandler creates a new DisableAccountHandler.
func NewDisableAccountHandler(accounts domain.AccountRepository) *DisableAccountHandler {
	return &DisableAccountHandler{accounts: accounts}
}

// Handle executes the DisableAccountCommand.
func (h *DisableAccountHandler) Handle(ctx context.Context, cmd DisableAccountCommand) error {
	account, err := h.accounts.FindByID(ctx, cmd.AccountID)
	if err != nil {
		return err
	}
	account.Disable()
	return h.accounts.Save(ctx, account)
}
