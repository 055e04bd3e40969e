// Package logging provides structured logging utilities for taskcal.
//
// Everything logs through log/slog. This package builds the process handler from
// configuration and keeps attribute naming consistent across packages.
//
// # Usage Patterns
//
// Build the process logger once:
//
//	logger, err := logging.New(logging.Options{Level: "info", Format: "text", Writer: os.Stderr})
//
// Scope it to an operation and attach results:
//
//	log := logging.WithOperation(logger, "task.add")
//	log.Info("task added", logging.TaskID(t.ID), logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
// Bearer credentials are never logged directly; use SanitizeToken.
package logging
