package main

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matsen/primdb/internal/config"
	"github.com/matsen/primdb/internal/store"
)

var syncForce bool

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVarP(&syncForce, "force", "f", false, "Rebuild even if the mirror is up to date")
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild the SQLite query mirror from the JSON documents",
	Long: `Rebuild data/mirror.db, a SQLite copy of every table, from db_meta.json
and data/<table>.json. The JSON documents remain the source of truth; the
mirror only serves 'primdb query'.

Example:
  primdb sync
  primdb sync --force`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func newMirror() *store.Mirror {
	return store.NewMirror(config.MirrorPath(cfg.DataDir), newStore())
}

// SyncResponse is the response for the sync command.
type SyncResponse struct {
	*store.SyncResult
	LastSync time.Time `json:"last_sync"`
}

func runSync(cmd *cobra.Command, args []string) error {
	mirror := newMirror()
	result, err := mirror.Sync(syncForce)
	if err != nil {
		exitWithError(ExitDataError, "syncing mirror: %v", err)
	}

	lastSync, err := mirror.LastSync()
	if err != nil {
		exitWithError(ExitDataError, "reading mirror sync time: %v", err)
	}

	if jsonOutput {
		return outputJSON(SyncResponse{SyncResult: result, LastSync: lastSync})
	}
	if result.Action == "skipped" {
		outputHuman("Mirror is up to date: %s (synced %s)\n", result.Path, humanize.Time(lastSync))
	} else {
		outputHuman("Rebuilt %s: %d tables, %d records\n", result.Path, result.Tables, result.Records)
	}
	return nil
}
