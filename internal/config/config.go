// Package config resolves the database location and shell settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config is the effective configuration after merging the global file,
// the environment, and command-line flags.
type Config struct {
	DataDir     string `json:"data_dir" yaml:"data_dir"`         // Root holding db_meta.json and data/
	Cache       bool   `json:"cache" yaml:"cache"`               // Cache conditioned selects
	Confirm     bool   `json:"confirm" yaml:"confirm"`           // Ask before drop_table and delete
	Timing      bool   `json:"timing" yaml:"timing"`             // Report elapsed time of data commands
	HistoryFile string `json:"history_file" yaml:"history_file"` // Shell history, empty disables it
}

const (
	CatalogFile = "db_meta.json"
	DataDir     = "data"
	MirrorFile  = "mirror.db"
	HistoryFile = ".primdb_history"
)

// Environment variables that override the global config file.
const (
	EnvDataDir = "PRIMDB_DATA_DIR"
	EnvCache   = "PRIMDB_CACHE"
	EnvConfirm = "PRIMDB_CONFIRM"
	EnvTiming  = "PRIMDB_TIMING"
)

// CatalogPath returns the path to db_meta.json from a root path.
func CatalogPath(root string) string {
	return filepath.Join(root, CatalogFile)
}

// TablesPath returns the path to the table data directory from a root path.
func TablesPath(root string) string {
	return filepath.Join(root, DataDir)
}

// MirrorPath returns the path to the SQLite mirror from a root path.
func MirrorPath(root string) string {
	return filepath.Join(root, DataDir, MirrorFile)
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{
		DataDir: ".",
		Cache:   true,
		Confirm: true,
		Timing:  true,
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.HistoryFile = filepath.Join(home, HistoryFile)
	}
	return cfg
}

// Resolve merges the global config and the environment over the defaults.
// getenv is normally os.Getenv.
func Resolve(global *GlobalConfig, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if global != nil {
		if global.DataDir != "" {
			cfg.DataDir = global.DataDir
		}
		if global.Cache != nil {
			cfg.Cache = *global.Cache
		}
		if global.Confirm != nil {
			cfg.Confirm = *global.Confirm
		}
		if global.Timing != nil {
			cfg.Timing = *global.Timing
		}
		if global.HistoryFile != "" {
			cfg.HistoryFile = global.HistoryFile
		}
	}

	if v := getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	for name, dst := range map[string]*bool{
		EnvCache:   &cfg.Cache,
		EnvConfirm: &cfg.Confirm,
		EnvTiming:  &cfg.Timing,
	} {
		v := getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s=%q: expected true or false", name, v)
		}
		*dst = b
	}

	cfg.DataDir = ExpandPath(cfg.DataDir)
	cfg.HistoryFile = ExpandPath(cfg.HistoryFile)
	return cfg, nil
}

// ValidateDataDir checks that the data root is a directory if it exists.
// A missing root is fine; it is created on the first write.
func ValidateDataDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir is not a directory: %s", path)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
