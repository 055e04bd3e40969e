// Package instrumentation provides OpenTelemetry metrics and tracing for taskcal.
//
// # Metrics
//
// Task store:
//   - taskcal_task_operations_total: task operations by operation and status
//   - taskcal_persistence_failures_total: failed snapshot writes by operation and backend
//
// Calendar:
//   - google_api_operations_total / google_api_operation_duration_seconds: calendar
//     API calls by service, operation and status
//   - taskcal_calendar_syncs_in_flight: background event creations not yet settled
//   - oauth_auth_total: sign-in attempts by result
//
// Hosts:
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds
//   - http_requests_total / http_request_duration_seconds
//
// # Tracing
//
// Calendar calls run inside google.calendar.<operation> client spans and MCP tools
// inside tool.<name> server spans.
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: taskcal)
//
// Prometheus metrics are served from the provider's own registry through Handler.
package instrumentation
