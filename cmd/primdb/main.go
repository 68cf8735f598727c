// Package main provides the primdb CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/primdb/internal/config"
	"github.com/matsen/primdb/internal/engine"
	"github.com/matsen/primdb/internal/shell"
	"github.com/matsen/primdb/internal/store"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// jsonOutput switches every command to JSON output
	jsonOutput bool
	verbose    bool

	flagDataDir string
	flagYes     bool
	flagNoCache bool
	flagTiming  bool
)

// cfg is the effective configuration, resolved before any command runs.
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "primdb",
	Short: "A tiny JSON-backed table database with an interactive shell",
	Long: `primdb keeps typed tables in plain JSON files and edits them through
a small command language.

Run without arguments to start the interactive shell. Tables live under the
data directory: db_meta.json holds the schemas and data/<table>.json the records.

Configuration is read from ~/.config/primdb/config.yml, then PRIMDB_* environment
variables (a .env file in the working directory is loaded first), then flags.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	Args:              cobra.NoArgs,
	RunE:              runShell,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Write results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics to stderr")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Directory holding db_meta.json and data/")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "Do not ask before drop_table and delete")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Disable the select cache")
	rootCmd.PersistentFlags().BoolVar(&flagTiming, "timing", true, "Report how long data commands take")
	rootCmd.Version = Version
}

// loadConfig sets up logging and resolves configuration for every command.
func loadConfig(cmd *cobra.Command, args []string) error {
	// Load .env if present; a missing file is not an error
	_ = godotenv.Load()

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	c, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	if flagDataDir != "" {
		c.DataDir = config.ExpandPath(flagDataDir)
	}
	if flagYes {
		c.Confirm = false
	}
	if flagNoCache {
		c.Cache = false
	}
	if cmd.Flags().Changed("timing") {
		c.Timing = flagTiming
	}

	if err := config.ValidateDataDir(c.DataDir); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	slog.Debug("resolved config", "data_dir", c.DataDir, "cache", c.Cache, "confirm", c.Confirm, "timing", c.Timing)
	cfg = c
	return nil
}

// newStore returns the store under the configured data directory.
func newStore() *store.Store {
	return store.New(config.CatalogPath(cfg.DataDir), config.TablesPath(cfg.DataDir))
}

// newEngine returns an engine honoring the cache setting.
func newEngine() *engine.Engine {
	if !cfg.Cache {
		return engine.New(newStore(), engine.WithCache(nil))
	}
	return engine.New(newStore())
}

// newRenderer returns the JSON or text renderer for stdout.
func newRenderer() shell.Renderer {
	if jsonOutput {
		return shell.NewJSONRenderer(os.Stdout)
	}
	return shell.NewTextRenderer(os.Stdout)
}

// newShell builds a shell whose confirmations, if enabled, are read from r.
func newShell(e *engine.Engine, r shell.LineReader) *shell.Shell {
	var confirmer shell.Confirmer = shell.AutoConfirm{}
	if cfg.Confirm {
		confirmer = shell.PromptConfirmer{Reader: r}
	}
	return shell.New(e, newRenderer(),
		shell.WithConfirmer(confirmer),
		shell.WithTiming(cfg.Timing),
	)
}
