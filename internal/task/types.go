package task

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// Priority is the importance of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority parses a priority name. An empty string yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case "", PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	case PriorityLow:
		return PriorityLow, nil
	default:
		return "", &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q, must be one of: high, medium, low", s)}
	}
}

// Label returns the human readable priority name.
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityLow:
		return "Low"
	default:
		return "Medium"
	}
}

// Task is a single todo item. The JSON field names match the persisted snapshot format.
type Task struct {
	ID             int64       `json:"id"`
	Description    string      `json:"task"`
	Priority       Priority    `json:"priority"`
	Date           *civil.Date `json:"date"`
	Time           *TimeOfDay  `json:"time"`
	IsRecurring    bool        `json:"isRecurring"`
	RecurringUntil *civil.Date `json:"recurringUntil"`
	Completed      bool        `json:"completed"`
}

// HasSchedule reports whether the task carries both a date and a time of day.
func (t Task) HasSchedule() bool {
	return t.Date != nil && t.Time != nil
}

// Draft is the caller-supplied part of a new task.
type Draft struct {
	Description    string
	Priority       Priority
	Date           *civil.Date
	Time           *TimeOfDay
	IsRecurring    bool
	RecurringUntil *civil.Date
}

// Validate checks the draft without touching any store.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Description) == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if _, err := ParsePriority(string(d.Priority)); err != nil {
		return err
	}
	if d.IsRecurring {
		if d.RecurringUntil == nil {
			return &ValidationError{Field: "recurringUntil", Reason: "is required for recurring tasks"}
		}
		if d.Date != nil && d.RecurringUntil.Before(*d.Date) {
			return &ValidationError{
				Field:  "recurringUntil",
				Reason: fmt.Sprintf("%s is earlier than the task date %s", d.RecurringUntil, d.Date),
			}
		}
	}
	return nil
}

// TimeOfDay is a wall-clock time serialised as HH:MM (or HH:MM:SS when seconds are set).
type TimeOfDay struct {
	civil.Time
}

// NewTimeOfDay returns the time hour:minute:00.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay{civil.Time{Hour: hour, Minute: minute}}
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	value := strings.TrimSpace(s)
	if strings.Count(value, ":") == 1 {
		value += ":00"
	}
	t, err := civil.ParseTime(value)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q, expected HH:MM: %w", s, err)
	}
	if !t.IsValid() {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	t.Nanosecond = 0
	return TimeOfDay{t}, nil
}

func (t TimeOfDay) String() string {
	if t.Second == 0 {
		return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(data []byte) error {
	parsed, err := ParseTimeOfDay(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseDate parses an optional YYYY-MM-DD date. An empty string yields nil.
func ParseDate(s string) (*civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return &d, nil
}

// ParseOptionalTime parses an optional HH:MM time. An empty string yields nil.
func ParseOptionalTime(s string) (*TimeOfDay, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Progress summarises completion across all tasks.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}
