// Package cmd implements the command-line interface for taskcal.
//
// This package provides the following commands:
//   - add, list, toggle, progress, clear: Manage the task list
//   - events: Show the Google Calendar events of a day
//   - login, logout, status: Manage the Google sign-in
//   - serve: Start the MCP server (stdio) or the HTTP API with the MCP endpoint
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Every command reads the same settings: built-in defaults, then the YAML file
// given by --config, then the .env file, then the environment, then flags.
// Running taskcal without a subcommand lists today's tasks.
package cmd
