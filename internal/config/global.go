package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/primdb/config.yml.
// Unset booleans keep their defaults.
type GlobalConfig struct {
	DataDir     string `yaml:"data_dir,omitempty"`
	Cache       *bool  `yaml:"cache,omitempty"`
	Confirm     *bool  `yaml:"confirm,omitempty"`
	Timing      *bool  `yaml:"timing,omitempty"`
	HistoryFile string `yaml:"history_file,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "primdb"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// cached holds the last loaded global config and the path it came from.
// A different path, e.g. after XDG_CONFIG_HOME changes, forces a reload.
var cached struct {
	path string
	cfg  *GlobalConfig
}

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/primdb/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig reads the global config file once per path.
// A missing file, or no resolvable home directory, yields an empty config.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path := GlobalConfigPath()
	if cached.cfg != nil && cached.path == path {
		return cached.cfg, nil
	}

	cfg, err := readGlobalConfig(path)
	if err != nil {
		return nil, err
	}

	cached.path, cached.cfg = path, cfg
	return cfg, nil
}

func readGlobalConfig(path string) (*GlobalConfig, error) {
	cfg := &GlobalConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing global config %s: %w", path, err)
	}
	return cfg, nil
}

// ResetGlobalConfigCache forgets the loaded global config.
func ResetGlobalConfigCache() {
	cached.path, cached.cfg = "", nil
}

// Load reads the global config file and applies environment overrides.
func Load() (*Config, error) {
	global, err := LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	return Resolve(global, os.Getenv)
}
