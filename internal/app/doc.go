// Package app is the Application Context shared by every host (CLI, MCP, HTTP).
//
// An App holds the task store, the sign-in session and the calendar adapter and
// implements the add flow: the task is validated, stored and persisted, the caller
// gets it back immediately, and when the task has a date and a time and the session
// is authenticated a calendar event is created in the background. A failed event
// creation is reported through the Notifier and never touches the store.
//
// Hosts that exit after a command call Wait so background syncs can settle.
package app
