// Package config loads optional CLI defaults from an apnealog.toml file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Export ExportConfig `toml:"export"`
	Notes  NotesConfig  `toml:"notes"`
}

// ExportConfig contains export bundle defaults.
type ExportConfig struct {
	Format     string `toml:"format"`
	Overwrite  bool   `toml:"overwrite"`
	CopySource bool   `toml:"copy_source"`
}

// NotesConfig contains session notes defaults.
type NotesConfig struct {
	DiveTableLimit int `toml:"dive_table_limit"`
}

// Load reads and parses a TOML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Export: ExportConfig{Format: "parquet"},
		Notes:  NotesConfig{DiveTableLimit: 20},
	}
}
