package shell

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/matsen/primdb/internal/engine"
)

// Renderer writes command results, errors, and notices.
type Renderer interface {
	Result(v any) error
	Error(err error)
	Timing(command string, d time.Duration)
	Notice(msg string)
}

// TextRenderer writes human-readable output.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a renderer writing plain text to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *TextRenderer) warnings(ws []string) {
	for _, w := range ws {
		r.printf("Warning: %s\n", w)
	}
}

// Result writes one command result.
func (r *TextRenderer) Result(v any) error {
	switch res := v.(type) {
	case *engine.CreateResult:
		r.warnings(res.Warnings)
		r.printf("Table %q created with columns: %s\n", res.Table, strings.Join(res.Columns, ", "))

	case *engine.DropResult:
		r.warnings(res.Warnings)
		r.printf("Table %q dropped.\n", res.Table)

	case *engine.ListResult:
		r.warnings(res.Warnings)
		n := 0
		for name := range res.Tables {
			if n == 0 {
				r.printf("Tables:\n")
			}
			r.printf("  - %s\n", name)
			n++
		}
		if n == 0 {
			r.printf("No tables.\n")
		}

	case *engine.InsertResult:
		r.warnings(res.Warnings)
		r.printf("Record with ID=%d added to table %q.\n", res.ID, res.Table)

	case *engine.SelectResult:
		r.warnings(res.Warnings)
		r.selectResult(res)

	case *engine.UpdateResult:
		r.warnings(res.Warnings)
		if res.Updated == 0 {
			r.printf("No matching records; nothing updated.\n")
		} else {
			r.printf("Updated %s in table %q.\n", records(res.Updated), res.Table)
		}

	case *engine.DeleteResult:
		r.warnings(res.Warnings)
		if res.Deleted == 0 {
			r.printf("No matching records; nothing deleted.\n")
		} else {
			r.printf("Deleted %s from table %q.\n", records(res.Deleted), res.Table)
		}

	case *engine.InfoResult:
		r.warnings(res.Warnings)
		r.printf("Table: %s\n", res.Table)
		r.printf("Columns: %s\n", strings.Join(res.Columns, ", "))
		r.printf("Records: %s\n", humanize.Comma(int64(res.Records)))
		if res.Size > 0 {
			r.printf("File: %s (%s)\n", res.Path, humanize.Bytes(uint64(res.Size)))
		} else {
			r.printf("File: %s (not written yet)\n", res.Path)
		}

	case *HelpResult:
		r.help(res)

	case *Cancelled:
		r.printf("Cancelled: %s.\n", res.Action)

	default:
		return fmt.Errorf("cannot render %T", v)
	}
	return nil
}

func records(n int) string {
	if n == 1 {
		return "1 record"
	}
	return fmt.Sprintf("%d records", n)
}

func (r *TextRenderer) selectResult(res *engine.SelectResult) {
	if res.Cached && res.Where != nil {
		r.printf("(cached result for %s where %s = %s)\n", res.Table, res.Where.Column, res.Where.Value)
	}
	if res.Empty {
		r.printf("Table %q is empty.\n", res.Table)
		return
	}

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
	rule := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		rule[i] = strings.Repeat("-", max(len(c), 2))
	}
	fmt.Fprintln(tw, strings.Join(rule, "\t"))

	for _, row := range res.Rows {
		cells := make([]string, len(res.Columns))
		for i, c := range res.Columns {
			if v, ok := row[c]; ok {
				cells[i] = v.String()
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	r.printf("(%s)\n", rows(len(res.Rows)))
}

func rows(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}

func (r *TextRenderer) help(h *HelpResult) {
	r.printf("Commands:\n")
	tw := tabwriter.NewWriter(r.w, 0, 0, 3, ' ', 0)
	for _, c := range h.Commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Usage, c.Description)
	}
	tw.Flush()

	r.printf("\nExamples:\n")
	for _, e := range h.Examples {
		r.printf("  %s\n", e)
	}
}

// Error writes an error, with the usage line for grammar errors.
func (r *TextRenderer) Error(err error) {
	r.printf("Error: %v\n", err)
	var usage *UsageError
	if errors.As(err, &usage) {
		r.printf("Usage: %s\n", usage.Usage)
	}
}

// Timing writes how long a command took.
func (r *TextRenderer) Timing(command string, d time.Duration) {
	r.printf("%s took %.3fs\n", command, d.Seconds())
}

// Notice writes a line of shell chatter.
func (r *TextRenderer) Notice(msg string) {
	r.printf("%s\n", msg)
}

// JSONRenderer writes one JSON document per result or error.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a renderer writing indented JSON to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSONRenderer{enc: enc}
}

// listResponse is the JSON form of a table listing.
type listResponse struct {
	Tables   []string `json:"tables"`
	Warnings []string `json:"warnings,omitempty"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Usage string `json:"usage,omitempty"`
}

// TimingResponse reports elapsed time in JSON mode.
type TimingResponse struct {
	Command string  `json:"command"`
	Seconds float64 `json:"elapsed_seconds"`
}

// cancelledResponse is the JSON form of a declined confirmation.
type cancelledResponse struct {
	Cancelled bool   `json:"cancelled"`
	Action    string `json:"action"`
}

// Result writes one command result.
func (r *JSONRenderer) Result(v any) error {
	switch res := v.(type) {
	case *engine.ListResult:
		out := listResponse{Tables: []string{}, Warnings: res.Warnings}
		for name := range res.Tables {
			out.Tables = append(out.Tables, name)
		}
		return r.enc.Encode(out)
	case *Cancelled:
		return r.enc.Encode(cancelledResponse{Cancelled: true, Action: res.Action})
	}
	return r.enc.Encode(v)
}

// Error writes an error response.
func (r *JSONRenderer) Error(err error) {
	resp := ErrorResponse{Error: err.Error()}
	var usage *UsageError
	if errors.As(err, &usage) {
		resp.Usage = usage.Usage
	}
	r.enc.Encode(resp)
}

// Timing writes a timing response.
func (r *JSONRenderer) Timing(command string, d time.Duration) {
	r.enc.Encode(TimingResponse{Command: command, Seconds: d.Seconds()})
}

// Notice is ignored in JSON mode.
func (r *JSONRenderer) Notice(string) {}
