package calendar_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	taskcal "github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/server"
	"github.com/teemow/taskcal/internal/tools/common"
)

// RegisterCalendarTools registers calendar tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List the Google Calendar events of a single day"),
		mcp.WithString("date",
			mcp.Description("Day as YYYY-MM-DD (default: today)"),
		),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandler("calendar_list_events", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	return nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	date, err := common.DateArg(request.GetArguments(), "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a := sc.App()
	day := a.Today()
	if date != nil {
		day = *date
	}

	if !a.Status().CalendarAvailable {
		return mcp.NewToolResultText("Not signed in to Google. Use google_get_auth_url to connect a calendar."), nil
	}

	events, err := a.Events(ctx, day)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Could not load calendar events: %v", err)), nil
	}
	if len(events) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No events on %s.", day)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d event(s) on %s:\n\n", len(events), day)
	for i, e := range events {
		fmt.Fprintf(&b, "%d. %s\n", i+1, summary(e))
		fmt.Fprintf(&b, "   When: %s\n", when(e))
		if e.Link != "" {
			fmt.Fprintf(&b, "   Link: %s\n", e.Link)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func summary(e taskcal.Event) string {
	if e.Summary == "" {
		return "(no title)"
	}
	return e.Summary
}

func when(e taskcal.Event) string {
	if e.AllDay {
		return "all day"
	}
	return fmt.Sprintf("%s - %s", e.Start.Format("15:04"), e.End.Format("15:04"))
}
