package google

import calendar "google.golang.org/api/calendar/v3"

// DefaultOAuthScopes are the scopes requested on sign-in.
//
// The scopes provide access to:
//   - OpenID Connect: basic identity for status output
//   - Google Calendar: create and list events
var DefaultOAuthScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	calendar.CalendarEventsScope,
}

// ScopesWithCalendar returns DefaultOAuthScopes with the calendar scope replaced by
// calendarScope. An empty calendarScope keeps the defaults.
func ScopesWithCalendar(calendarScope string) []string {
	scopes := make([]string, 0, len(DefaultOAuthScopes))
	for _, s := range DefaultOAuthScopes {
		if s == calendar.CalendarEventsScope && calendarScope != "" {
			s = calendarScope
		}
		scopes = append(scopes, s)
	}
	return scopes
}
