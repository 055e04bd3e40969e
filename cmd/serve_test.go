package cmd

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskcal/internal/app"
	"github.com/teemow/taskcal/internal/server"
	"github.com/teemow/taskcal/internal/session"
	"github.com/teemow/taskcal/internal/storage"
	"github.com/teemow/taskcal/internal/task"
)

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	backend := storage.NewMemory()
	a := app.New(app.Options{
		Store:   task.NewStore(backend, task.DefaultStorageKey, nil),
		Session: session.New(backend, nil),
	})
	sc, err := server.NewServerContext(context.Background(), a)
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown(context.Background()) })
	return sc
}

func TestRegisterAllTools(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("taskcal-test", "test", mcpserver.WithToolCapabilities(true))
	if err := registerAllTools(mcpSrv, newTestServerContext(t)); err != nil {
		t.Fatalf("registerAllTools() error = %v", err)
	}

	var names []string
	for name := range mcpSrv.ListTools() {
		names = append(names, name)
	}
	sort.Strings(names)

	expected := []string{
		"auth_status",
		"calendar_list_events",
		"google_get_auth_url",
		"google_save_auth_code",
		"google_sign_out",
		"todo_add",
		"todo_clear",
		"todo_list",
		"todo_progress",
		"todo_toggle",
	}
	if strings.Join(names, ",") != strings.Join(expected, ",") {
		t.Errorf("registered tools = %v, want %v", names, expected)
	}
}

func TestRunServe_UnsupportedTransport(t *testing.T) {
	err := runServe(context.Background(), serveOptions{Transport: "sse"})
	if err == nil || !strings.Contains(err.Error(), "unsupported transport type") {
		t.Errorf("runServe() error = %v, want unsupported transport", err)
	}
}

func TestGetCategoryFromToolName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{name: "todo_add", expected: "Task Tools"},
		{name: "calendar_list_events", expected: "Google Calendar Tools"},
		{name: "google_get_auth_url", expected: "Google Sign-In Tools"},
		{name: "auth_status", expected: "Google Sign-In Tools"},
		{name: "unknown", expected: "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getCategoryFromToolName(tt.name); got != tt.expected {
				t.Errorf("getCategoryFromToolName(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

func TestGenerateToolsMarkdown(t *testing.T) {
	tools := []mcp.Tool{
		mcp.NewTool("todo_add",
			mcp.WithDescription("Add a task"),
			mcp.WithString("task", mcp.Required(), mcp.Description("Task description")),
			mcp.WithString("date", mcp.Description("Due date as YYYY-MM-DD")),
		),
		mcp.NewTool("calendar_list_events", mcp.WithDescription("List events")),
	}

	markdown := generateToolsMarkdown(tools)

	for _, want := range []string{
		"# MCP Tools Reference",
		"- [Task Tools](#task-tools)",
		"- [Google Calendar Tools](#google-calendar-tools)",
		"## Google Calendar Tools",
		"### `todo_add`",
		"| `task` | string | yes | Task description |",
		"| `date` | string | no | Due date as YYYY-MM-DD |",
		"No arguments.",
	} {
		if !strings.Contains(markdown, want) {
			t.Errorf("markdown is missing %q", want)
		}
	}

	if strings.Index(markdown, "## Task Tools") > strings.Index(markdown, "## Google Calendar Tools") {
		t.Error("task tools should be documented before calendar tools")
	}
	if strings.Index(markdown, "`task` |") > strings.Index(markdown, "`date` |") {
		t.Error("required arguments should be listed first")
	}
}
