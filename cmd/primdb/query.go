package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/matsen/primdb/internal/store"
)

var queryCSV bool
var queryNoSync bool

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().BoolVar(&queryCSV, "csv", false, "Output CSV")
	queryCmd.Flags().BoolVar(&queryNoSync, "no-sync", false, "Fail instead of rebuilding a stale mirror")
}

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Query the tables with SQL",
	Long: `Execute a SQL query against the SQLite mirror of the tables.

The mirror is rebuilt first when the JSON documents have changed since the
last sync. Booleans are stored as 1 and 0.

Examples:
  primdb query "SELECT name, age FROM users WHERE age > 25 ORDER BY age"
  primdb query "SELECT COUNT(*) FROM users" --json
  primdb query "SELECT * FROM users" --csv`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	mirror := newMirror()

	stale, err := mirror.NeedsSync()
	if err != nil {
		exitWithError(ExitError, "checking mirror: %v", err)
	}
	if stale {
		if queryNoSync {
			exitWithError(ExitError, "mirror is stale, run 'primdb sync' first")
		}
		if _, err := mirror.Sync(true); err != nil {
			exitWithError(ExitDataError, "syncing mirror: %v", err)
		}
	}

	result, err := mirror.Query(args[0])
	if err != nil {
		exitWithError(ExitError, "SQL error: %v", err)
	}

	switch {
	case jsonOutput:
		return outputJSON(queryRows(result))
	case queryCSV:
		return outputCSV(os.Stdout, result)
	default:
		return outputTable(os.Stdout, result)
	}
}

// queryRows turns a result into one object per row.
func queryRows(result *store.QueryResult) []map[string]any {
	rows := make([]map[string]any, 0, len(result.Rows))
	for _, values := range result.Rows {
		row := make(map[string]any, len(result.Columns))
		for i, col := range result.Columns {
			row[col] = values[i]
		}
		rows = append(rows, row)
	}
	return rows
}

// formatCell renders a SQLite value; NULL is empty.
func formatCell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// outputCSV writes a query result as CSV.
func outputCSV(w io.Writer, result *store.QueryResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(result.Columns); err != nil {
		return err
	}
	for _, values := range result.Rows {
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatCell(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// outputTable writes a query result as aligned columns.
func outputTable(w io.Writer, result *store.QueryResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(result.Columns, "\t"))
	for _, values := range result.Rows {
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatCell(v)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "(%d rows)\n", len(result.Rows))
	return nil
}
