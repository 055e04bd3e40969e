package batch

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result represents the result of a single operation in a batch
type Result struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult represents the aggregated results of a batch operation
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseID accepts a task ID as a JSON number or a decimal string.
func ParseID(v interface{}) (int64, error) {
	switch id := v.(type) {
	case float64:
		if id != math.Trunc(id) || id > math.MaxInt64 || id < math.MinInt64 {
			return 0, fmt.Errorf("task id %v is not an integer", id)
		}
		return int64(id), nil
	case int:
		return int64(id), nil
	case int64:
		return id, nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("task id %q is not an integer", id)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("task id must be a number or string, got %T", v)
	}
}

// ParseIDs parses a parameter that can be either a single ID or an array of IDs
func ParseIDs(param interface{}, paramName string) ([]int64, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	items, ok := param.([]interface{})
	if !ok {
		id, err := ParseID(param)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", paramName, err)
		}
		return []int64{id}, nil
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}
	ids := make([]int64, 0, len(items))
	for i, item := range items {
		id, err := ParseID(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", paramName, i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Summarize aggregates results into a BatchResult.
func Summarize(results []Result) BatchResult {
	br := BatchResult{
		Total:   len(results),
		Results: results,
	}
	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
	}
	return br
}

// FormatResults creates a formatted JSON string from batch results
func FormatResults(results []Result) string {
	jsonBytes, _ := json.MarshalIndent(Summarize(results), "", "  ")
	return string(jsonBytes)
}

// ProcessBatch executes fn on each ID in order and collects results.
func ProcessBatch[T any](ids []int64, fn func(id int64) (T, error)) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		res, err := fn(id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		results = append(results, NewSuccessResult(id, res))
	}
	return results
}

// NewSuccessResult creates a success result
func NewSuccessResult(id int64, result any) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: result,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(id int64, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
	}
}
