// Package task holds the todo model and the Task Store.
//
// A Task is created through Store.Add from a validated Draft, changes only through
// Store.ToggleComplete, and disappears only when the store is cleared. Every
// mutation writes the full ordered list to a storage.Backend before it returns
// (write-through). A failed write is reported as a *PersistenceError but the
// in-memory change is kept.
//
// VisibleOn is the pure date filter used by every host to derive the list shown
// for a selected day. Recurring tasks match every day in the inclusive range
// [Date, RecurringUntil]; other tasks match only their own Date.
package task
