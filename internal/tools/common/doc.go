// Package common provides the instrumentation wrapper and argument helpers
// shared by the MCP tool packages.
package common
