package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/matsen/primdb/internal/shell"
	"github.com/matsen/primdb/internal/store"
)

func TestExecExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"usage", &shell.UsageError{Command: "info", Usage: "info <table>", Err: errors.New("wrong number of arguments")}, ExitError},
		{"unknown command", fmt.Errorf("frobnicate: %w", shell.ErrUnknownCommand), ExitError},
		{"missing table", fmt.Errorf("info ghosts: %w", store.ErrTableNotFound), ExitDataError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := execExitCode(tt.err); got != tt.want {
				t.Errorf("execExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func sampleResult() *store.QueryResult {
	return &store.QueryResult{
		Columns: []string{"name", "age"},
		Rows: [][]any{
			{"Alice", int64(30)},
			{"Bob, Jr.", nil},
		},
	}
}

func TestOutputCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := outputCSV(&buf, sampleResult()); err != nil {
		t.Fatalf("outputCSV() error = %v", err)
	}

	want := "name,age\nAlice,30\n\"Bob, Jr.\",\n"
	if got := buf.String(); got != want {
		t.Errorf("outputCSV() = %q, want %q", got, want)
	}
}

func TestOutputTable(t *testing.T) {
	var buf bytes.Buffer
	if err := outputTable(&buf, sampleResult()); err != nil {
		t.Fatalf("outputTable() error = %v", err)
	}

	want := "name      age\nAlice     30\nBob, Jr.  \n(2 rows)\n"
	if got := buf.String(); got != want {
		t.Errorf("outputTable() = %q, want %q", got, want)
	}
}

func TestQueryRows(t *testing.T) {
	rows := queryRows(sampleResult())
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0]["name"] != "Alice" || rows[0]["age"] != int64(30) {
		t.Errorf("rows[0] = %v", rows[0])
	}
	if rows[1]["age"] != nil {
		t.Errorf("rows[1][age] = %v, want nil", rows[1]["age"])
	}

	empty := queryRows(&store.QueryResult{Columns: []string{"a"}})
	if empty == nil || len(empty) != 0 {
		t.Errorf("queryRows(empty) = %v, want empty non-nil slice", empty)
	}
}
