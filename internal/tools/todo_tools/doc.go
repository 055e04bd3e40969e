// Package todo_tools provides MCP tools for managing the task list:
// todo_add, todo_list, todo_toggle, todo_progress and todo_clear.
//
// Adding a task with a date and a time while signed in to Google also starts a
// background calendar event creation; the tool returns without waiting for it.
package todo_tools
