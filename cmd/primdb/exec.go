package main

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/primdb/internal/shell"
)

func init() {
	rootCmd.AddCommand(execCmd)
}

var execCmd = &cobra.Command{
	Use:   "exec <command...>",
	Short: "Run one shell command and exit",
	Long: `Run a single shell command without starting the interactive loop.

The arguments are joined with spaces into one command line, so quote values
that must keep their spacing.

Exit codes: 0 on success, 1 for a malformed or unknown command,
3 when the command itself failed, such as an unknown table.

Examples:
  primdb exec create_table users name:str age:int
  primdb exec 'insert into users values ("Ana Maria", 30)'
  primdb exec --yes delete from users where ID = 1

Use -- before a command containing values that start with a dash:
  primdb exec -- update users set age = -1 where ID = 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func runExec(cmd *cobra.Command, args []string) error {
	reader := shell.NewScannerReader(os.Stdin, os.Stderr)
	sh := newShell(newEngine(), reader)

	if _, err := sh.Execute(strings.Join(args, " ")); err != nil {
		os.Exit(execExitCode(err))
	}
	return nil
}

// execExitCode maps a command error to an exit code.
// The error has already been printed by the shell.
func execExitCode(err error) int {
	var usage *shell.UsageError
	if errors.As(err, &usage) || errors.Is(err, shell.ErrUnknownCommand) {
		return ExitError
	}
	return ExitDataError
}
