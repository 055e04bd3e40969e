// Package batch provides helpers for tools that act on several tasks at once.
//
// This package includes helpers for:
//   - Parsing an ID parameter given as one value or an array
//   - Running an operation per ID while collecting partial failures
//   - Formatting the per-ID results as JSON
package batch
