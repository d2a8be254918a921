package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrNoCredentialStore is returned when no credential store serves the provider.
var ErrNoCredentialStore = errors.New("credentials for this provider are not configured")

// TokenStore keeps OAuth tokens for accounts.
type TokenStore interface {
	StoreToken(ctx context.Context, accountID uuid.UUID, token *oauth2.Token) error
}

// PasswordStore keeps CalDAV credentials for accounts.
type PasswordStore interface {
	StorePassword(ctx context.Context, accountID uuid.UUID, username, password string) error
}

// ConnectAccountCommand links an external calendar to its owner.
type ConnectAccountCommand struct {
	OwnerEmail         string
	Provider           string
	CalendarID         string
	IgnoreAllDayEvents bool

	// CalDAVURL is required for generic CalDAV servers.
	CalDAVURL string
	// BaseURL overrides the provider API endpoint.
	BaseURL string

	Username string
	Password string

	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// ConnectAccountHandler handles the ConnectAccountCommand.
type ConnectAccountHandler struct {
	accounts  domain.AccountRepository
	tokens    map[domain.ProviderType]TokenStore
	passwords PasswordStore
	logger    *slog.Logger
}

// NewConnectAccountHandler creates a new ConnectAccountHandler.
// tokens maps OAuth providers to their stores; passwords may be nil when CalDAV is unused.
func NewConnectAccountHandler(accounts domain.AccountRepository, tokens map[domain.ProviderType]TokenStore, passwords PasswordStore, logger *slog.Logger) *ConnectAccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectAccountHandler{accounts: accounts, tokens: tokens, passwords: passwords, logger: logger}
}

// Handle executes the ConnectAccountCommand and returns the new account.
func (h *ConnectAccountHandler) Handle(ctx context.Context, cmd ConnectAccountCommand) (*domain.CalendarAccount, error) {
	provider, err := domain.ParseProviderType(cmd.Provider)
	if err != nil {
		return nil, err
	}
	account, err := domain.NewCalendarAccount(cmd.OwnerEmail, provider)
	if err != nil {
		return nil, err
	}
	account.WithCalendarID(cmd.CalendarID)
	account.SetIgnoreAllDayEvents(cmd.IgnoreAllDayEvents)
	if cmd.BaseURL != "" {
		account.SetConfig(domain.ConfigKeyBaseURL, cmd.BaseURL)
	}
	if cmd.CalDAVURL != "" {
		account.SetConfig(domain.ConfigKeyCalDAVURL, cmd.CalDAVURL)
	}

	store, err := h.credentialWriter(account, cmd)
	if err != nil {
		return nil, err
	}

	if err := h.accounts.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("save calendar account: %w", err)
	}
	if err := store(ctx); err != nil {
		return nil, fmt.Errorf("store credentials: %w", err)
	}

	h.logger.InfoContext(ctx, "calendar account connected",
		"account_id", account.ID(),
		"owner", account.OwnerEmail(),
		"provider", provider,
	)
	return account, nil
}

// credentialWriter validates the credentials before anything is saved.
func (h *ConnectAccountHandler) credentialWriter(account *domain.CalendarAccount, cmd ConnectAccountCommand) (func(context.Context) error, error) {
	provider := account.Provider()
	switch {
	case provider.RequiresOAuth():
		store, ok := h.tokens[provider]
		if !ok || store == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoCredentialStore, provider)
		}
		if cmd.AccessToken == "" && cmd.RefreshToken == "" {
			return nil, errors.New("an access or refresh token is required")
		}
		token := &oauth2.Token{
			AccessToken:  cmd.AccessToken,
			RefreshToken: cmd.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       cmd.Expiry,
		}
		return func(ctx context.Context) error { return store.StoreToken(ctx, account.ID(), token) }, nil

	case provider.RequiresCalDAV():
		if h.passwords == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoCredentialStore, provider)
		}
		if provider == domain.ProviderCalDAV && account.CalDAVURL() == "" {
			return nil, domain.ErrCalDAVURLMissing
		}
		if cmd.Username == "" || cmd.Password == "" {
			return nil, errors.New("username and password are required")
		}
		return func(ctx context.Context) error {
			return h.passwords.StorePassword(ctx, account.ID(), cmd.Username, cmd.Password)
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, provider)
}
