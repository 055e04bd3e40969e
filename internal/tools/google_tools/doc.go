// Package google_tools provides MCP tools for the Google sign-in that connects
// the task list to Google Calendar.
//
// The OAuth flow:
//  1. Call google_get_auth_url to get the authorization URL
//  2. The user visits the URL and authorizes calendar access
//  3. The user provides the authorization code
//  4. Call google_save_auth_code with the code to complete sign-in
//
// auth_status reports the session state at any time, and google_sign_out
// forgets the saved credential. Scheduled tasks added while signed out stay
// local; they are not synced retroactively after a later sign-in.
package google_tools
