package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matsen/primdb/internal/shell"
)

// writeJSON writes v as indented JSON to w.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputJSON writes v as indented JSON to stdout.
func outputJSON(v any) error {
	return writeJSON(os.Stdout, v)
}

// outputHuman writes formatted text to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError reports a CLI-level failure and exits with code.
// The message uses the same shape as shell command errors: an ErrorResponse
// on stdout in JSON mode, an "Error:" line on stderr otherwise.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if jsonOutput {
		writeJSON(os.Stdout, shell.ErrorResponse{Error: msg})
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(code)
}
