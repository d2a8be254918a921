package domain

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Domain errors for CalendarAccount validation.
var (
	ErrEmptyOwner       = errors.New("account owner cannot be empty")
	ErrInvalidProvider  = errors.New("invalid provider type")
	ErrAccountNotFound  = errors.New("calendar account not found")
	ErrAccountDisabled  = errors.New("calendar account is disabled")
	ErrCalDAVURLMissing = errors.New("caldav url not configured")
)

// Config keys understood by the providers.
const (
	ConfigKeyCalDAVURL = "caldav_url"
	ConfigKeyBaseURL   = "base_url"
)

// PrimaryCalendarID addresses the account's default calendar.
const PrimaryCalendarID = "primary"

// CalendarAccount is a member's link to an external calendar.
// The engine reads it to know where busy events come from.
type CalendarAccount struct {
	id                 uuid.UUID
	ownerEmail         string
	provider           ProviderType
	calendarID         string
	ignoreAllDayEvents bool
	enabled            bool
	config             map[string]string
	createdAt          time.Time
}

// NewCalendarAccount creates an enabled account on the owner's primary calendar.
func NewCalendarAccount(ownerEmail string, provider ProviderType) (*CalendarAccount, error) {
	if strings.TrimSpace(ownerEmail) == "" {
		return nil, ErrEmptyOwner
	}
	if !provider.IsValid() {
		return nil, ErrInvalidProvider
	}
	return &CalendarAccount{
		id:         uuid.New(),
		ownerEmail: strings.TrimSpace(ownerEmail),
		provider:   provider,
		calendarID: PrimaryCalendarID,
		enabled:    true,
		config:     make(map[string]string),
		createdAt:  time.Now().UTC(),
	}, nil
}

// RehydrateCalendarAccount rebuilds an account from persistence.
func RehydrateCalendarAccount(
	id uuid.UUID,
	ownerEmail string,
	provider ProviderType,
	calendarID string,
	ignoreAllDayEvents bool,
	enabled bool,
	configJSON string,
	createdAt time.Time,
) *CalendarAccount {
	config := make(map[string]string)
	if configJSON != "" {
		_ = json.Unmarshal([]byte(configJSON), &config)
	}
	if calendarID == "" {
		calendarID = PrimaryCalendarID
	}
	return &CalendarAccount{
		id:                 id,
		ownerEmail:         ownerEmail,
		provider:           provider,
		calendarID:         calendarID,
		ignoreAllDayEvents: ignoreAllDayEvents,
		enabled:            enabled,
		config:             config,
		createdAt:          createdAt,
	}
}

func (a *CalendarAccount) ID() uuid.UUID            { return a.id }
func (a *CalendarAccount) OwnerEmail() string       { return a.ownerEmail }
func (a *CalendarAccount) Provider() ProviderType   { return a.provider }
func (a *CalendarAccount) CalendarID() string       { return a.calendarID }
func (a *CalendarAccount) IgnoreAllDayEvents() bool { return a.ignoreAllDayEvents }
func (a *CalendarAccount) IsEnabled() bool          { return a.enabled }
func (a *CalendarAccount) CreatedAt() time.Time     { return a.createdAt }

// IsPrimary reports whether the account reads the provider's default calendar.
func (a *CalendarAccount) IsPrimary() bool {
	return a.calendarID == "" || a.calendarID == PrimaryCalendarID
}

// WithCalendarID points the account at a specific calendar.
func (a *CalendarAccount) WithCalendarID(id string) *CalendarAccount {
	if strings.TrimSpace(id) == "" {
		id = PrimaryCalendarID
	}
	a.calendarID = id
	return a
}

// SetIgnoreAllDayEvents controls whether events without a time zone are skipped.
func (a *CalendarAccount) SetIgnoreAllDayEvents(ignore bool) {
	a.ignoreAllDayEvents = ignore
}

// Disable stops the account from contributing busy events.
func (a *CalendarAccount) Disable() { a.enabled = false }

// ConfigValue returns a specific configuration value.
func (a *CalendarAccount) ConfigValue(key string) string {
	if a.config == nil {
		return ""
	}
	return a.config[key]
}

// SetConfig sets a configuration value.
func (a *CalendarAccount) SetConfig(key, value string) {
	if a.config == nil {
		a.config = make(map[string]string)
	}
	a.config[key] = value
}

// ConfigJSON returns the config as a JSON string for persistence.
func (a *CalendarAccount) ConfigJSON() string {
	if len(a.config) == 0 {
		return "{}"
	}
	data, err := json.Marshal(a.config)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// CalDAVURL returns the server URL for CalDAV accounts.
func (a *CalendarAccount) CalDAVURL() string {
	return a.ConfigValue(ConfigKeyCalDAVURL)
}

// AccountRepository reads calendar accounts.
type AccountRepository interface {
	Save(ctx context.Context, account *CalendarAccount) error
	FindByID(ctx context.Context, id uuid.UUID) (*CalendarAccount, error)
	FindByOwner(ctx context.Context, ownerEmail string) ([]*CalendarAccount, error)
}
