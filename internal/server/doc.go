// Package server provides the host-side plumbing shared by the MCP and HTTP
// surfaces of taskcal.
//
// # Key Components
//
// ServerContext owns the Application Context for the lifetime of a server and
// waits for in-flight calendar syncs on shutdown.
//
// NewRouter builds the chi router for the JSON API:
//
//	GET  /api/tasks?date=YYYY-MM-DD   tasks visible on date (all when omitted)
//	POST /api/tasks                   add a task
//	POST /api/tasks/{id}/toggle       flip completion
//	DELETE /api/tasks                 clear the list
//	GET  /api/progress                completion summary
//	GET  /api/events?date=YYYY-MM-DD  calendar events on date
//	GET  /api/status                  session, storage and progress
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed. Readiness
// includes a storage probe.
//
// MetricsServer serves the Prometheus registry of an instrumentation.Provider
// on a dedicated port.
package server
