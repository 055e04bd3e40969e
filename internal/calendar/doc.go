// Package calendar is the Calendar Sync Adapter: it turns tasks into Google Calendar
// events and lists the events of a day.
//
// Every operation requires an authenticated session (google.TokenProvider). Without
// one it fails with ErrNotAuthenticated before any network traffic. Remote failures
// are returned as *RemoteSyncError carrying the message reported by the API when
// there is one. Calls are made exactly once; there is no retry or queueing.
//
// Example usage:
//
//	adapter := calendar.New(session, calendar.Options{CalendarID: "primary"})
//	if adapter.IsAvailable() {
//	    events, err := adapter.ListEvents(ctx, civil.DateOf(time.Now()))
//	    ...
//	}
package calendar
