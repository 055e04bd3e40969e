package todo_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskcal/internal/server"
	"github.com/teemow/taskcal/internal/task"
	"github.com/teemow/taskcal/internal/tools/batch"
	"github.com/teemow/taskcal/internal/tools/common"
)

// RegisterTodoTools registers all task list tools with the MCP server
func RegisterTodoTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	addTool := mcp.NewTool("todo_add",
		mcp.WithDescription("Add a task. A task with a date and a time is also added to Google Calendar when signed in."),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Task description"),
		),
		mcp.WithString("priority",
			mcp.Description("Priority: high, medium or low (default: medium)"),
		),
		mcp.WithString("date",
			mcp.Description("Due date as YYYY-MM-DD"),
		),
		mcp.WithString("time",
			mcp.Description("Time of day as HH:MM (only used together with date)"),
		),
		mcp.WithBoolean("isRecurring",
			mcp.Description("Whether the task repeats daily from date until recurringUntil"),
		),
		mcp.WithString("recurringUntil",
			mcp.Description("Last day of a recurring task as YYYY-MM-DD (required when isRecurring is true)"),
		),
	)
	s.AddTool(addTool, common.InstrumentedToolHandler("todo_add", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAddTask(ctx, request, sc)
		}))

	listTool := mcp.NewTool("todo_list",
		mcp.WithDescription("List tasks. With a date, only tasks due that day and recurring tasks whose range covers it are returned."),
		mcp.WithString("date",
			mcp.Description("Filter date as YYYY-MM-DD (default: all tasks)"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler("todo_list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListTasks(ctx, request, sc)
		}))

	toggleTool := mcp.NewTool("todo_toggle",
		mcp.WithDescription("Toggle the completed flag of one or more tasks"),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Task ID or array of task IDs"),
		),
	)
	s.AddTool(toggleTool, common.InstrumentedToolHandler("todo_toggle", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleToggleTasks(ctx, request, sc)
		}))

	progressTool := mcp.NewTool("todo_progress",
		mcp.WithDescription("Show how many tasks are completed"),
	)
	s.AddTool(progressTool, common.InstrumentedToolHandler("todo_progress", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleProgress(ctx, request, sc)
		}))

	clearTool := mcp.NewTool("todo_clear",
		mcp.WithDescription("Remove every task"),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true to clear the list"),
		),
	)
	s.AddTool(clearTool, common.InstrumentedToolHandler("todo_clear", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleClear(ctx, request, sc)
		}))

	return nil
}

func handleAddTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	draft, err := common.DraftFromArgs(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	a := sc.App()
	created, err := a.AddTask(ctx, draft)
	var validation *task.ValidationError
	if errors.As(err, &validation) {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Task added: %s\n", created.Description)
	writeTask(&b, created)
	if err != nil {
		fmt.Fprintf(&b, "\n⚠ The task is kept for this session but was not saved: %v\n", err)
	}
	if created.HasSchedule() {
		if a.Status().CalendarAvailable {
			b.WriteString("\nA Google Calendar event is being created in the background.\n")
		} else {
			b.WriteString("\nNot signed in to Google, so no calendar event was created.\n")
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleListTasks(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	date, err := common.DateArg(request.GetArguments(), "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tasks := sc.App().Tasks(date)
	var b strings.Builder
	if date != nil {
		fmt.Fprintf(&b, "Found %d task(s) for %s:\n\n", len(tasks), date)
	} else {
		fmt.Fprintf(&b, "Found %d task(s):\n\n", len(tasks))
	}
	for i, t := range tasks {
		check := " "
		if t.Completed {
			check = "x"
		}
		fmt.Fprintf(&b, "%d. [%s] %s (%s)\n", i+1, check, t.Description, t.Priority.Label())
		writeTask(&b, t)
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleToggleTasks(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	ids, err := batch.ParseIDs(request.GetArguments()["ids"], "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(ids, func(id int64) (task.Task, error) {
		t, err := sc.App().ToggleTask(ctx, id)
		var persistErr *task.PersistenceError
		if errors.As(err, &persistErr) {
			// the toggle is applied in memory
			return t, nil
		}
		return t, err
	})

	summary := batch.Summarize(results)
	if summary.Successful == 0 {
		return mcp.NewToolResultError(batch.FormatResults(results)), nil
	}
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleProgress(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	p := sc.App().Progress()
	if p.Total == 0 {
		return mcp.NewToolResultText("No tasks yet."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d of %d tasks completed (%d%%)", p.Completed, p.Total, p.Percent)), nil
}

func handleClear(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if !common.BoolArg(request.GetArguments(), "confirm") {
		return mcp.NewToolResultError("confirm must be true to clear all tasks"), nil
	}
	if err := sc.App().Clear(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Tasks were cleared for this session but not saved: %v", err)), nil
	}
	return mcp.NewToolResultText("All tasks cleared."), nil
}

func writeTask(b *strings.Builder, t task.Task) {
	fmt.Fprintf(b, "   ID: %d\n", t.ID)
	if t.Date != nil {
		when := t.Date.String()
		if t.Time != nil {
			when += " " + t.Time.String()
		}
		fmt.Fprintf(b, "   Date: %s\n", when)
	}
	if t.IsRecurring && t.RecurringUntil != nil {
		fmt.Fprintf(b, "   Repeats daily until: %s\n", t.RecurringUntil)
	}
}
