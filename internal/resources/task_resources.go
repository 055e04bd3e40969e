package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskcal/internal/server"
)

const (
	TasksURI  = "taskcal://tasks"
	StatusURI = "taskcal://status"
)

// RegisterTaskResources registers the task list and status resources
func RegisterTaskResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	tasksResource := mcp.NewResource(
		TasksURI,
		"Task List",
		mcp.WithResourceDescription("Every task with its date, time, recurrence and completion state"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(tasksResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleTasks(ctx, request, sc)
	})

	statusResource := mcp.NewResource(
		StatusURI,
		"Status",
		mcp.WithResourceDescription("Google sign-in state, calendar availability, storage backend and task progress"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(statusResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleStatus(ctx, request, sc)
	})

	return nil
}

func handleTasks(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, sc.App().Tasks(nil))
}

func handleStatus(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, sc.App().Status())
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
