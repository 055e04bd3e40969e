// Package calendar_tools provides MCP (Model Context Protocol) tools for reading
// the Google Calendar events shown next to the task list.
//
// Events are only fetched while the session is authenticated. Without a session
// the tools report that no calendar is connected instead of failing.
package calendar_tools
