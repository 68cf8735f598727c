package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/primdb/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging the global config file, PRIMDB_*
environment variables, and flags, together with the resulting file paths.

Global config keys (~/.config/primdb/config.yml):
  data_dir      Directory holding db_meta.json and data/
  cache         Cache conditioned selects (true/false)
  confirm       Ask before drop_table and delete (true/false)
  timing        Report how long data commands take (true/false)
  history_file  Shell history file`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	*config.Config
	GlobalConfig string `json:"global_config"`
	Catalog      string `json:"catalog"`
	Tables       string `json:"tables"`
	Mirror       string `json:"mirror"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	resp := ConfigResponse{
		Config:       cfg,
		GlobalConfig: config.GlobalConfigPath(),
		Catalog:      config.CatalogPath(cfg.DataDir),
		Tables:       config.TablesPath(cfg.DataDir),
		Mirror:       config.MirrorPath(cfg.DataDir),
	}

	if jsonOutput {
		return outputJSON(resp)
	}

	outputHuman("global_config: %s\n", resp.GlobalConfig)
	outputHuman("data_dir:      %s\n", cfg.DataDir)
	outputHuman("cache:         %t\n", cfg.Cache)
	outputHuman("confirm:       %t\n", cfg.Confirm)
	outputHuman("timing:        %t\n", cfg.Timing)
	outputHuman("history_file:  %s\n", cfg.HistoryFile)
	outputHuman("catalog:       %s\n", resp.Catalog)
	outputHuman("tables:        %s\n", resp.Tables)
	outputHuman("mirror:        %s\n", resp.Mirror)
	return nil
}
