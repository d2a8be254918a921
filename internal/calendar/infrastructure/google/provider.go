package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	calendarApp "github.com/felixgeelhaar/freebusy/internal/calendar/application"
	"github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

type tokenSourceProvider interface {
	TokenSource(ctx context.Context, accountID uuid.UUID) (oauth2.TokenSource, error)
}

// Provider reads events from Google Calendar.
type Provider struct {
	tokens  tokenSourceProvider
	logger  *slog.Logger
	baseURL string
	timeout time.Duration
}

// NewProvider creates a Google Calendar provider.
func NewProvider(tokens tokenSourceProvider, logger *slog.Logger) *Provider {
	return NewProviderWithBaseURL(tokens, logger, defaultBaseURL)
}

// NewProviderWithBaseURL creates a Google Calendar provider with a custom base URL.
func NewProviderWithBaseURL(tokens tokenSourceProvider, logger *slog.Logger, baseURL string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		tokens:  tokens,
		logger:  logger,
		baseURL: baseURL,
		timeout: 15 * time.Second,
	}
}

// WithTimeout overrides the per-request HTTP timeout.
func (p *Provider) WithTimeout(d time.Duration) *Provider {
	if d > 0 {
		p.timeout = d
	}
	return p
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
	TimeZone string `json:"timeZone"`
}

type eventList struct {
	NextPageToken string `json:"nextPageToken"`
	TimeZone      string `json:"timeZone"`
	Items         []struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
		Status  string `json:"status"`
		Creator struct {
			Email string `json:"email"`
		} `json:"creator"`
		Attendees []struct {
			Email          string `json:"email"`
			Self           bool   `json:"self"`
			ResponseStatus string `json:"responseStatus"`
		} `json:"attendees"`
		Start eventTime `json:"start"`
		End   eventTime `json:"end"`
	} `json:"items"`
}

// ListEvents lists the account's events between dayStart and dayEnd via events.list.
func (p *Provider) ListEvents(ctx context.Context, account *domain.CalendarAccount, dayStart, dayEnd time.Time) ([]calendarApp.ProviderEvent, error) {
	if p.tokens == nil {
		return nil, fmt.Errorf("oauth token source not configured")
	}
	tokenSource, err := p.tokens.TokenSource(ctx, account.ID())
	if err != nil {
		return nil, &calendarApp.ProviderError{Provider: domain.ProviderGoogle, StatusCode: http.StatusUnauthorized, Err: err}
	}
	client := http.Client{
		Timeout: p.timeout,
		Transport: &oauthTransport{
			base:   http.DefaultTransport,
			source: tokenSource,
		},
	}

	calendarID := account.CalendarID()
	if calendarID == "" {
		calendarID = domain.PrimaryCalendarID
	}

	events := make([]calendarApp.ProviderEvent, 0)
	pageToken := ""
	for {
		page, err := p.fetchPage(ctx, &client, calendarID, dayStart, dayEnd, pageToken)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Status == "cancelled" {
				continue
			}
			event := calendarApp.ProviderEvent{
				ID:           item.ID,
				Summary:      item.Summary,
				CreatorEmail: item.Creator.Email,
				Start:        calendarApp.EventTime(item.Start),
				End:          calendarApp.EventTime(item.End),
			}
			for _, a := range item.Attendees {
				event.Attendees = append(event.Attendees, calendarApp.Attendee{
					Email:          a.Email,
					Self:           a.Self,
					ResponseStatus: a.ResponseStatus,
				})
			}
			events = append(events, event)
			if len(events) >= calendarApp.MaxEventsPerDay {
				return events, nil
			}
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	p.logger.Debug("listed google events",
		"account_id", account.ID(),
		"calendar_id", calendarID,
		"count", len(events),
	)
	return events, nil
}

func (p *Provider) fetchPage(ctx context.Context, client *http.Client, calendarID string, start, end time.Time, pageToken string) (*eventList, error) {
	query := url.Values{}
	query.Set("timeMin", start.UTC().Format(time.RFC3339))
	query.Set("timeMax", end.UTC().Format(time.RFC3339))
	query.Set("singleEvents", "true")
	query.Set("orderBy", "startTime")
	query.Set("maxResults", strconv.Itoa(calendarApp.MaxEventsPerDay))
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}
	listURL := fmt.Sprintf("%s/calendars/%s/events?%s", p.baseURL, url.PathEscape(calendarID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &calendarApp.ProviderError{Provider: domain.ProviderGoogle, StatusCode: http.StatusBadGateway, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(resp)
	}

	var page eventList
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &calendarApp.ProviderError{Provider: domain.ProviderGoogle, StatusCode: http.StatusBadGateway, Err: fmt.Errorf("decode events: %w", err)}
	}
	return &page, nil
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &calendarApp.ProviderError{
		Provider:   domain.ProviderGoogle,
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
