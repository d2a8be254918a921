package microsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	calendarApp "github.com/felixgeelhaar/freebusy/internal/calendar/application"
	"github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://graph.microsoft.com/v1.0"

// Microsoft OAuth2 endpoints
const (
	MicrosoftAuthURL  = "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"
	MicrosoftTokenURL = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
)

// DefaultScopes are the read-only scopes needed to list calendar events.
var DefaultScopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

// graph timestamps carry seven fractional digits and no offset
const graphTimeLayout = "2006-01-02T15:04:05.0000000"

const pageSize = 250

type tokenSourceProvider interface {
	TokenSource(ctx context.Context, accountID uuid.UUID) (oauth2.TokenSource, error)
}

// Provider reads events from Microsoft Graph calendars.
type Provider struct {
	tokens  tokenSourceProvider
	logger  *slog.Logger
	baseURL string
}

// NewProvider creates a Microsoft Graph calendar provider.
func NewProvider(tokens tokenSourceProvider, logger *slog.Logger) *Provider {
	return NewProviderWithBaseURL(tokens, logger, defaultBaseURL)
}

// NewProviderWithBaseURL creates a provider against a custom Graph base URL.
func NewProviderWithBaseURL(tokens tokenSourceProvider, logger *slog.Logger, baseURL string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{tokens: tokens, logger: logger, baseURL: baseURL}
}

type msDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type msEmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

type msStatus struct {
	Response string `json:"response,omitempty"`
}

type msEvent struct {
	ID             string     `json:"id"`
	Subject        string     `json:"subject"`
	Start          msDateTime `json:"start"`
	End            msDateTime `json:"end"`
	IsAllDay       bool       `json:"isAllDay"`
	IsCancelled    bool       `json:"isCancelled"`
	ResponseStatus msStatus   `json:"responseStatus"`
	Organizer      struct {
		EmailAddress msEmailAddress `json:"emailAddress"`
	} `json:"organizer"`
	Attendees []struct {
		Status       msStatus       `json:"status"`
		EmailAddress msEmailAddress `json:"emailAddress"`
	} `json:"attendees"`
}

type msEventPage struct {
	Value    []msEvent `json:"value"`
	NextLink string    `json:"@odata.nextLink"`
}

// ListEvents lists events overlapping [dayStart, dayEnd) using calendarView,
// which expands recurring series into single occurrences.
func (p *Provider) ListEvents(ctx context.Context, account *domain.CalendarAccount, dayStart, dayEnd time.Time) ([]calendarApp.ProviderEvent, error) {
	if p.tokens == nil {
		return nil, fmt.Errorf("oauth token source not configured")
	}
	client, err := p.getHTTPClient(ctx, account.ID())
	if err != nil {
		return nil, &calendarApp.ProviderError{Provider: domain.ProviderMicrosoft, StatusCode: http.StatusUnauthorized, Err: err}
	}

	params := url.Values{}
	params.Set("startDateTime", dayStart.UTC().Format(time.RFC3339))
	params.Set("endDateTime", dayEnd.UTC().Format(time.RFC3339))
	params.Set("$orderby", "start/dateTime")
	params.Set("$top", strconv.Itoa(pageSize))
	next := fmt.Sprintf("%s?%s", p.calendarViewURL(account), params.Encode())

	events := make([]calendarApp.ProviderEvent, 0)
	for next != "" {
		page, err := p.fetchPage(ctx, client, next)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Value {
			if item.IsCancelled {
				continue
			}
			events = append(events, toProviderEvent(item, account.OwnerEmail()))
			if len(events) >= calendarApp.MaxEventsPerDay {
				return events, nil
			}
		}
		next = page.NextLink
	}

	p.logger.Debug("listed microsoft events", "account_id", account.ID(), "count", len(events))
	return events, nil
}

func (p *Provider) fetchPage(ctx context.Context, client *http.Client, pageURL string) (*msEventPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "outlook.timezone=\"UTC\"")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &calendarApp.ProviderError{Provider: domain.ProviderMicrosoft, StatusCode: http.StatusBadGateway, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(resp)
	}

	var page msEventPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &calendarApp.ProviderError{Provider: domain.ProviderMicrosoft, StatusCode: http.StatusBadGateway, Err: fmt.Errorf("decode events: %w", err)}
	}
	return &page, nil
}

func toProviderEvent(item msEvent, owner string) calendarApp.ProviderEvent {
	event := calendarApp.ProviderEvent{
		ID:           item.ID,
		Summary:      item.Subject,
		CreatorEmail: item.Organizer.EmailAddress.Address,
		Start:        toEventTime(item.Start, item.IsAllDay),
		End:          toEventTime(item.End, item.IsAllDay),
	}

	selfFound := false
	for _, att := range item.Attendees {
		self := strings.EqualFold(att.EmailAddress.Address, owner)
		selfFound = selfFound || self
		event.Attendees = append(event.Attendees, calendarApp.Attendee{
			Email:          att.EmailAddress.Address,
			Self:           self,
			ResponseStatus: att.Status.Response,
		})
	}
	// Graph reports the owner's reply on the event itself, even when the owner
	// was invited through a distribution list and is not listed as an attendee.
	if !selfFound && item.ResponseStatus.Response != "" && item.ResponseStatus.Response != "organizer" {
		event.Attendees = append(event.Attendees, calendarApp.Attendee{
			Email:          owner,
			Self:           true,
			ResponseStatus: item.ResponseStatus.Response,
		})
	}
	return event
}

func toEventTime(dt msDateTime, allDay bool) calendarApp.EventTime {
	if allDay {
		date := dt.DateTime
		if len(date) >= 10 {
			date = date[:10]
		}
		return calendarApp.EventTime{Date: date}
	}
	value := dt.DateTime
	if t, err := time.Parse(graphTimeLayout, value); err == nil {
		value = t.Format("2006-01-02T15:04:05")
	}
	return calendarApp.EventTime{DateTime: value, TimeZone: dt.TimeZone}
}

func (p *Provider) getHTTPClient(ctx context.Context, accountID uuid.UUID) (*http.Client, error) {
	tokenSource, err := p.tokens.TokenSource(ctx, accountID)
	if err != nil {
		return nil, err
	}

	token, err := tokenSource.Token()
	if err != nil {
		p.logger.Warn("oauth token refresh failed", "account_id", accountID, "error", err)
		return nil, err
	}
	if !token.Expiry.IsZero() && time.Until(token.Expiry) < 5*time.Minute {
		p.logger.Warn("oauth token nearing expiry", "account_id", accountID, "expires_at", token.Expiry)
	}

	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &oauthTransport{
			base:   http.DefaultTransport,
			source: tokenSource,
		},
	}, nil
}

func (p *Provider) calendarViewURL(account *domain.CalendarAccount) string {
	if account.IsPrimary() {
		return fmt.Sprintf("%s/me/calendarView", p.baseURL)
	}
	return fmt.Sprintf("%s/me/calendars/%s/calendarView", p.baseURL, url.PathEscape(account.CalendarID()))
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &calendarApp.ProviderError{
		Provider:   domain.ProviderMicrosoft,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

type oauthTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return t.base.RoundTrip(req)
}
