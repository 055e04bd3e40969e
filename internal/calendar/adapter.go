package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/taskcal/internal/google"
	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/task"
)

// DefaultCalendarID is the calendar events are written to and read from.
const DefaultCalendarID = "primary"

// Options configures an Adapter.
type Options struct {
	// CalendarID is the target calendar (default: primary).
	CalendarID string

	// Location is the time zone task dates and times are interpreted in (default: time.Local).
	Location *time.Location

	// EventDuration is the length of an event for a task with a time of day.
	// Zero produces an event that ends when it starts.
	EventDuration time.Duration

	// APIKey, when set, is sent as the "key" query parameter.
	APIKey string

	// Endpoint overrides the Calendar API base URL.
	Endpoint string

	// OAuthConfig enables token refresh when the credential carries a refresh token.
	OAuthConfig *oauth2.Config

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger

	// NewEventID generates client-side event IDs (default: random UUID without hyphens).
	NewEventID func() string
}

// Adapter creates and lists events on behalf of an authenticated session.
type Adapter struct {
	provider google.TokenProvider
	opts     Options
	logger   *slog.Logger
}

// New creates an Adapter bound to provider.
func New(provider google.TokenProvider, opts Options) *Adapter {
	if opts.CalendarID == "" {
		opts.CalendarID = DefaultCalendarID
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.NewEventID == nil {
		opts.NewEventID = newEventID
	}
	return &Adapter{
		provider: provider,
		opts:     opts,
		logger:   logging.WithService(logging.OrDiscard(opts.Logger), instrumentation.ServiceCalendar),
	}
}

// IsAvailable reports whether the session carries a usable credential.
func (a *Adapter) IsAvailable() bool {
	return a.provider != nil && a.provider.HasToken()
}

// CalendarID returns the calendar the adapter targets.
func (a *Adapter) CalendarID() string {
	return a.opts.CalendarID
}

// CreateEvent creates one event for t. The task must have a date.
func (a *Adapter) CreateEvent(ctx context.Context, t task.Task) (ev *Event, err error) {
	if !a.IsAvailable() {
		return nil, ErrNotAuthenticated
	}
	if t.Date == nil {
		return nil, ErrUndatedTask
	}

	payload := EventForTask(t, a.opts.Location, a.opts.EventDuration)
	payload.Id = a.opts.NewEventID()

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationCreateEvent,
		attribute.String(instrumentation.SpanAttrCalendar, a.opts.CalendarID),
		attribute.Int64(instrumentation.SpanAttrTaskID, t.ID),
	)
	start := time.Now()
	defer func() {
		a.finish(ctx, instrumentation.OperationCreateEvent, start, err)
		instrumentation.EndSpan(span, err)
	}()

	svc, err := a.service(ctx)
	if err != nil {
		return nil, newRemoteSyncError(instrumentation.OperationCreateEvent, err)
	}

	created, err := svc.Events.Insert(a.opts.CalendarID, payload).Context(ctx).Do(a.callOptions()...)
	if err != nil {
		return nil, newRemoteSyncError(instrumentation.OperationCreateEvent, err)
	}

	a.logger.Info("created calendar event",
		logging.TaskID(t.ID),
		slog.String("event_id", created.Id))
	event := toEvent(created, a.opts.Location)
	return &event, nil
}

// ListEvents returns the single-instance events starting on date, ordered by start time.
func (a *Adapter) ListEvents(ctx context.Context, date civil.Date) (events []Event, err error) {
	if !a.IsAvailable() {
		return nil, ErrNotAuthenticated
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationListEvents,
		attribute.String(instrumentation.SpanAttrCalendar, a.opts.CalendarID),
		attribute.String(instrumentation.SpanAttrDate, date.String()),
	)
	start := time.Now()
	defer func() {
		a.finish(ctx, instrumentation.OperationListEvents, start, err)
		instrumentation.EndSpan(span, err)
	}()

	svc, err := a.service(ctx)
	if err != nil {
		return nil, newRemoteSyncError(instrumentation.OperationListEvents, err)
	}

	dayStart, dayEnd := dayBounds(date, a.opts.Location)
	call := svc.Events.List(a.opts.CalendarID).
		TimeMin(dayStart.Format(time.RFC3339)).
		TimeMax(dayEnd.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	events = []Event{}
	pageToken := ""
	for {
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do(a.callOptions()...)
		if err != nil {
			return nil, newRemoteSyncError(instrumentation.OperationListEvents, err)
		}
		for _, item := range page.Items {
			events = append(events, toEvent(item, a.opts.Location))
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	a.logger.Debug("listed calendar events", logging.Date(date), slog.Int("count", len(events)))
	return events, nil
}

func (a *Adapter) finish(ctx context.Context, op string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		logging.WithOperation(a.logger, op).WarnContext(ctx, "calendar request failed", logging.Err(err))
	}
	a.opts.Metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, op, status, time.Since(start))
}

func (a *Adapter) service(ctx context.Context) (*calendar.Service, error) {
	client, err := google.HTTPClient(ctx, a.opts.OAuthConfig, a.provider)
	if err != nil {
		return nil, err
	}
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if a.opts.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.opts.Endpoint))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return svc, nil
}

func (a *Adapter) callOptions() []googleapi.CallOption {
	if a.opts.APIKey == "" {
		return nil
	}
	return []googleapi.CallOption{googleapi.QueryParameter("key", a.opts.APIKey)}
}

// EventForTask builds the event payload for t. A task without a time becomes a
// 00:00:00 to 23:59:59 event on its date; otherwise the event starts at the task
// time and lasts duration.
func EventForTask(t task.Task, loc *time.Location, duration time.Duration) *calendar.Event {
	var start, end time.Time
	if t.Time != nil {
		start = time.Date(t.Date.Year, t.Date.Month, t.Date.Day, t.Time.Hour, t.Time.Minute, t.Time.Second, 0, loc)
		end = start.Add(duration)
	} else {
		start, end = dayBounds(*t.Date, loc)
	}

	tz := ""
	if name := loc.String(); name != "Local" {
		tz = name
	}
	return &calendar.Event{
		Summary:     t.Description,
		Description: "Priority: " + t.Priority.Label(),
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: tz},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: tz},
	}
}

func dayBounds(date civil.Date, loc *time.Location) (time.Time, time.Time) {
	start := date.In(loc)
	end := time.Date(date.Year, date.Month, date.Day, 23, 59, 59, 0, loc)
	return start, end
}

// newEventID returns a random ID in the base32hex alphabet the Calendar API accepts.
func newEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
