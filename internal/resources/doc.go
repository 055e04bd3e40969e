// Package resources exposes the task list and the application status as MCP
// resources, so assistants can read them without calling a tool.
//
// Resources:
//   - taskcal://tasks: every task as JSON, in the persisted snapshot format
//   - taskcal://status: session state, calendar availability, storage backend and progress
package resources
