package task

import "cloud.google.com/go/civil"

// VisibleOn returns the tasks shown for date, in input order.
// A nil date disables filtering. Undated tasks never match a date.
func VisibleOn(tasks []Task, date *civil.Date) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if date == nil || matches(t, *date) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t Task, date civil.Date) bool {
	if t.IsRecurring && t.Date != nil && t.RecurringUntil != nil {
		return !date.Before(*t.Date) && !date.After(*t.RecurringUntil)
	}
	return t.Date != nil && *t.Date == date
}
