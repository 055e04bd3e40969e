package calendar

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

var (
	// ErrNotAuthenticated is returned when no authenticated session is available.
	ErrNotAuthenticated = errors.New("calendar: not signed in to Google")

	// ErrUndatedTask is returned when creating an event for a task without a date.
	ErrUndatedTask = errors.New("calendar: task has no date")
)

const genericRemoteMessage = "remote calendar request failed"

// RemoteSyncError reports a failed call to the calendar API.
type RemoteSyncError struct {
	// Op is the adapter operation, "create" or "list".
	Op string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Message is the remote-reported message, or a generic one.
	Message string
	Err     error
}

func (e *RemoteSyncError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("calendar %s failed (%d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("calendar %s failed: %s", e.Op, e.Message)
}

func (e *RemoteSyncError) Unwrap() error {
	return e.Err
}

func newRemoteSyncError(op string, err error) *RemoteSyncError {
	rse := &RemoteSyncError{Op: op, Message: genericRemoteMessage, Err: err}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		rse.StatusCode = gerr.Code
		switch {
		case gerr.Message != "":
			rse.Message = gerr.Message
		case len(gerr.Errors) > 0 && gerr.Errors[0].Message != "":
			rse.Message = gerr.Errors[0].Message
		case gerr.Code != 0:
			rse.Message = http.StatusText(gerr.Code)
		}
	}
	return rse
}

// Event is a calendar event as shown next to the task list.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"allDay,omitempty"`
	Status      string    `json:"status,omitempty"`
	Link        string    `json:"link,omitempty"`
}

// toEvent converts a Google Calendar event to an Event.
func toEvent(event *calendar.Event, loc *time.Location) Event {
	if event == nil {
		return Event{}
	}
	e := Event{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Status:      event.Status,
		Link:        event.HtmlLink,
	}
	e.Start, e.AllDay = parseEventTime(event.Start, loc)
	e.End, _ = parseEventTime(event.End, loc)
	return e
}

func parseEventTime(edt *calendar.EventDateTime, loc *time.Location) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t.In(loc), false
		}
	}
	if edt.Date != "" {
		if t, err := time.ParseInLocation("2006-01-02", edt.Date, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
