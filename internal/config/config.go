// Package config loads optional TOML defaults for the command line tool.
// Everything here can be overridden per invocation by flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds tool-wide defaults.
type Config struct {
	// Format is the default serialization target for update operations.
	Format string `toml:"format"`

	// Workers bounds batch concurrency. Zero means one worker per CPU.
	Workers int `toml:"workers"`

	// CachePath enables the persistent dump cache when non-empty.
	CachePath string `toml:"cache_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Format:   "amd64",
		LogLevel: "info",
	}
}

// Load reads the config file at path on top of the defaults. A missing file
// is not an error; the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
