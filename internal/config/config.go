package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	StorePath string `toml:"store_path"`
	IndexPath string `toml:"index_path"`
	WatchDir  string `toml:"watch_dir"`
	LogLevel  string `toml:"log_level"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StorePath: filepath.Join(home, ".config", "reflect", "reflect.db"),
		IndexPath: filepath.Join(home, ".config", "reflect", "index.db"),
		WatchDir:  filepath.Join(home, "Downloads"),
		LogLevel:  "info",
	}

	cfgPath := filepath.Join(home, ".config", "reflect", "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	cfg.StorePath = expandHome(cfg.StorePath, home)
	cfg.IndexPath = expandHome(cfg.IndexPath, home)
	cfg.WatchDir = expandHome(cfg.WatchDir, home)

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
