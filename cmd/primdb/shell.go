package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/matsen/primdb/internal/shell"
)

// isTerminal reports whether stdin is an interactive terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// runShell starts the interactive loop. Piped input is read line by line
// without prompts or line editing.
func runShell(cmd *cobra.Command, args []string) error {
	e := newEngine()

	var sh *shell.Shell
	var reader shell.LineReader

	if isTerminal() {
		completer := shell.NewCompleter(func() []string { return sh.Tables() })
		rl, err := shell.NewReadlineReader(cfg.HistoryFile, completer)
		if err != nil {
			// Fall back to a plain reader if the line editor cannot start
			slog.Warn("line editing unavailable", "error", err)
			reader = shell.NewScannerReader(os.Stdin, os.Stdout)
		} else {
			reader = rl
		}
	} else {
		reader = shell.NewScannerReader(os.Stdin, nil)
	}
	defer reader.Close()

	sh = newShell(e, reader)
	if err := sh.Run(reader); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if stats, ok := e.CacheStats(); ok {
		slog.Debug("query cache", "entries", stats.Entries, "hits", stats.Hits, "misses", stats.Misses)
	}
	return nil
}
