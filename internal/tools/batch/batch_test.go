package batch

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    []int64
		wantErr bool
	}{
		{
			name:  "single number",
			input: float64(1704877200000),
			want:  []int64{1704877200000},
		},
		{
			name:  "single string",
			input: "42",
			want:  []int64{42},
		},
		{
			name:  "array of mixed ids",
			input: []interface{}{float64(1), "2", float64(3)},
			want:  []int64{1, 2, 3},
		},
		{
			name:    "nil input",
			input:   nil,
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "empty array",
			input:   []interface{}{},
			wantErr: true,
		},
		{
			name:    "array with non-numeric string",
			input:   []interface{}{"1", "two"},
			wantErr: true,
		},
		{
			name:    "fractional number",
			input:   2.5,
			wantErr: true,
		},
		{
			name:    "wrong type",
			input:   map[string]interface{}{"id": 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDs(tt.input, "ids")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIDs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatResults(t *testing.T) {
	results := []Result{
		NewSuccessResult(1, "done"),
		NewErrorResult(2, errors.New("task not found")),
		NewSuccessResult(3, "done"),
	}

	var br BatchResult
	if err := json.Unmarshal([]byte(FormatResults(results)), &br); err != nil {
		t.Fatalf("FormatResults() produced invalid JSON: %v", err)
	}
	if br.Total != 3 || br.Successful != 2 || br.Failed != 1 {
		t.Errorf("FormatResults() totals = %d/%d/%d, want 3/2/1", br.Total, br.Successful, br.Failed)
	}
	if br.Results[1].Error != "task not found" {
		t.Errorf("FormatResults() error = %q", br.Results[1].Error)
	}
}

func TestProcessBatch(t *testing.T) {
	var seen []int64
	results := ProcessBatch([]int64{1, 2, 3}, func(id int64) (bool, error) {
		seen = append(seen, id)
		if id == 2 {
			return false, errors.New("task not found")
		}
		return true, nil
	})

	if !reflect.DeepEqual(seen, []int64{1, 2, 3}) {
		t.Errorf("ProcessBatch() visited %v, want every id in order", seen)
	}
	if len(results) != 3 {
		t.Fatalf("ProcessBatch() returned %d results, want 3", len(results))
	}
	if results[0].Status != StatusSuccess || results[0].Result != true {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Status != StatusError || results[1].Error != "task not found" {
		t.Errorf("results[1] = %+v", results[1])
	}
	if got := Summarize(results); got.Failed != 1 || got.Successful != 2 {
		t.Errorf("Summarize() = %+v", got)
	}
}
