package common

import (
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/teemow/taskcal/internal/task"
)

// StringArg returns the trimmed string argument name, or "" when absent or not a string.
func StringArg(args map[string]interface{}, name string) string {
	if v, ok := args[name].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// BoolArg returns the boolean argument name. Strings "true" and "false" are accepted.
func BoolArg(args map[string]interface{}, name string) bool {
	switch v := args[name].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	default:
		return false
	}
}

// DateArg parses the optional YYYY-MM-DD argument name.
func DateArg(args map[string]interface{}, name string) (*civil.Date, error) {
	return task.ParseDate(StringArg(args, name))
}

// DraftFromArgs reads a task draft from tool arguments.
func DraftFromArgs(args map[string]interface{}) (task.Draft, error) {
	return task.DraftInput{
		Description:    StringArg(args, "task"),
		Priority:       StringArg(args, "priority"),
		Date:           StringArg(args, "date"),
		Time:           StringArg(args, "time"),
		IsRecurring:    BoolArg(args, "isRecurring"),
		RecurringUntil: StringArg(args, "recurringUntil"),
	}.Parse()
}
