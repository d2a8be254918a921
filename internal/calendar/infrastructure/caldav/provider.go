package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	calendarApp "github.com/felixgeelhaar/freebusy/internal/calendar/application"
	"github.com/felixgeelhaar/freebusy/internal/calendar/domain"
)

// Common CalDAV server URLs
const (
	AppleCalDAVURL    = "https://caldav.icloud.com"
	FastmailCalDAVURL = "https://caldav.fastmail.com"
)

const (
	icalDateLayout     = "20060102"
	icalDateTimeLayout = "20060102T150405"
)

// Provider reads events from a CalDAV calendar (Apple Calendar, Fastmail, Nextcloud, etc.).
type Provider struct {
	baseURL  string
	username string
	password string // App-specific password for Apple
	logger   *slog.Logger
	timeout  time.Duration
}

// NewProvider creates a CalDAV provider for one set of credentials.
func NewProvider(baseURL, username, password string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		baseURL:  baseURL,
		username: username,
		password: password,
		logger:   logger,
		timeout:  30 * time.Second,
	}
}

// WithTimeout overrides the HTTP client timeout.
func (p *Provider) WithTimeout(d time.Duration) *Provider {
	if d > 0 {
		p.timeout = d
	}
	return p
}

// ListEvents queries VEVENTs in [dayStart, dayEnd) from the account's calendar.
func (p *Provider) ListEvents(ctx context.Context, account *domain.CalendarAccount, dayStart, dayEnd time.Time) ([]calendarApp.ProviderEvent, error) {
	recorder := &statusRecorder{base: http.DefaultTransport}
	client, err := p.getClient(recorder)
	if err != nil {
		return nil, err
	}

	calPath, err := p.findCalendarPath(ctx, client, account)
	if err != nil {
		return nil, recorder.wrap(fmt.Errorf("failed to find calendar: %w", err))
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  "VCALENDAR",
			Props: []string{"VERSION"},
			Comps: []caldav.CalendarCompRequest{
				{
					Name:  "VEVENT",
					Props: []string{"SUMMARY", "DTSTART", "DTEND", "DURATION", "UID", "STATUS", "ORGANIZER", "ATTENDEE"},
				},
			},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{
					Name:  "VEVENT",
					Start: dayStart.UTC(),
					End:   dayEnd.UTC(),
				},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return nil, recorder.wrap(fmt.Errorf("failed to query calendar: %w", err))
	}

	self := selfAddresses(account.OwnerEmail(), p.username)
	events := make([]calendarApp.ProviderEvent, 0, len(objects))
	for i := range objects {
		events = append(events, parseCalendarObject(&objects[i], self)...)
	}

	// servers do not order REPORT results
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.DateTime+events[i].Start.Date < events[j].Start.DateTime+events[j].Start.Date
	})
	if len(events) > calendarApp.MaxEventsPerDay {
		events = events[:calendarApp.MaxEventsPerDay]
	}

	p.logger.Debug("listed caldav events", "account_id", account.ID(), "path", calPath, "count", len(events))
	return events, nil
}

func (p *Provider) getClient(transport http.RoundTripper) (*caldav.Client, error) {
	httpClient := &http.Client{Timeout: p.timeout, Transport: transport}
	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(httpClient, p.username, p.password), p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return client, nil
}

func (p *Provider) findCalendarPath(ctx context.Context, client *caldav.Client, account *domain.CalendarAccount) (string, error) {
	if !account.IsPrimary() {
		return account.CalendarID(), nil
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found")
	}

	// Use first calendar as default
	return cals[0].Path, nil
}

// statusRecorder remembers the last failing HTTP status seen by the client.
type statusRecorder struct {
	base   http.RoundTripper
	status atomic.Int32
}

func (r *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req)
	if err == nil && resp.StatusCode >= 400 {
		r.status.Store(int32(resp.StatusCode))
	}
	return resp, err
}

// wrap turns err into a ProviderError carrying the recorded status.
func (r *statusRecorder) wrap(err error) error {
	status := int(r.status.Load())
	if status == 0 {
		status = http.StatusBadGateway
	}
	return &calendarApp.ProviderError{Provider: domain.ProviderCalDAV, StatusCode: status, Err: err}
}

func selfAddresses(addrs ...string) map[string]bool {
	self := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			self[a] = true
		}
	}
	return self
}

func parseCalendarObject(obj *caldav.CalendarObject, self map[string]bool) []calendarApp.ProviderEvent {
	if obj == nil || obj.Data == nil {
		return nil
	}

	var events []calendarApp.ProviderEvent
	for _, child := range obj.Data.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		if status := child.Props.Get(ical.PropStatus); status != nil && strings.EqualFold(status.Value, "CANCELLED") {
			continue
		}

		event := calendarApp.ProviderEvent{ID: obj.Path}
		if prop := child.Props.Get(ical.PropUID); prop != nil {
			event.ID = prop.Value
		}
		if prop := child.Props.Get(ical.PropSummary); prop != nil {
			event.Summary = prop.Value
		}
		if prop := child.Props.Get(ical.PropOrganizer); prop != nil {
			event.CreatorEmail = mailbox(prop.Value)
		}
		for _, att := range child.Props[ical.PropAttendee] {
			email := mailbox(att.Value)
			event.Attendees = append(event.Attendees, calendarApp.Attendee{
				Email:          email,
				Self:           self[strings.ToLower(email)],
				ResponseStatus: att.Params.Get("PARTSTAT"),
			})
		}

		event.Start = toEventTime(child.Props.Get(ical.PropDateTimeStart))
		if end := child.Props.Get(ical.PropDateTimeEnd); end != nil {
			event.End = toEventTime(end)
		} else {
			// DURATION or implicit end; go-ical resolves both
			icalEvent := &ical.Event{Component: child}
			if t, err := icalEvent.DateTimeEnd(time.UTC); err == nil {
				event.End = calendarApp.EventTime{DateTime: t.UTC().Format(time.RFC3339)}
			}
		}
		events = append(events, event)
	}
	return events
}

// toEventTime keeps the zone information of a DTSTART/DTEND as written.
// Floating times come back without a zone.
func toEventTime(prop *ical.Prop) calendarApp.EventTime {
	if prop == nil {
		return calendarApp.EventTime{}
	}
	value := strings.TrimSpace(prop.Value)

	if strings.EqualFold(prop.Params.Get(ical.ParamValue), "DATE") || len(value) == len(icalDateLayout) {
		if d, err := time.Parse(icalDateLayout, value); err == nil {
			return calendarApp.EventTime{Date: d.Format("2006-01-02")}
		}
		return calendarApp.EventTime{Date: value}
	}

	if strings.HasSuffix(value, "Z") {
		if t, err := time.Parse(icalDateTimeLayout+"Z", value); err == nil {
			return calendarApp.EventTime{DateTime: t.Format(time.RFC3339)}
		}
	}

	naive := value
	if t, err := time.Parse(icalDateTimeLayout, value); err == nil {
		naive = t.Format("2006-01-02T15:04:05")
	}
	return calendarApp.EventTime{DateTime: naive, TimeZone: prop.Params.Get(ical.ParamTimezoneID)}
}

func mailbox(value string) string {
	v := strings.TrimSpace(value)
	if len(v) >= 7 && strings.EqualFold(v[:7], "mailto:") {
		v = v[7:]
	}
	return v
}
