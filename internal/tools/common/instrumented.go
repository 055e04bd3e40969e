package common

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/server"
)

// errToolResult marks spans of tools that answered with an error result.
var errToolResult = errors.New("tool returned an error result")

// InstrumentedToolHandler wraps a tool handler with a span, metrics and a debug log.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		start := time.Now()

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		spanErr := err
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
			if spanErr == nil {
				spanErr = errToolResult
			}
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)
		instrumentation.EndSpan(span, spanErr)
		logger := logging.WithTool(sc.Logger(), toolName)
		if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
			logger = logger.With(slog.String("trace_id", traceID))
		}
		logger.DebugContext(ctx, "tool invoked",
			logging.Status(status),
			logging.Err(err))

		return result, err
	}
}
