// Package google provides OAuth2 configuration and sign-in for the Google Calendar API.
//
// Exchange turns an authorization code into a token and reports the outcome through
// SignInCallbacks, so the caller's session sees exactly one of "succeeded with a
// credential" or "failed". The TokenProvider interface lets the calendar adapter read
// the current credential without depending on how it was obtained.
package google
