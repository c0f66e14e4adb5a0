// Package config loads the workspace configuration from a TOML file,
// writing one with defaults the first time.
package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const FileName = "config.toml"

type Config struct {
	// WebAddr is the listen address for the web UI.
	WebAddr string `toml:"web_addr"`
	// DefaultDue is the due expression used when add omits one.
	DefaultDue string `toml:"default_due"`
	// ExportPath is the default CSV export target.
	ExportPath string `toml:"export_path"`
}

func defaultConfig() Config {
	return Config{
		WebAddr:    "127.0.0.1:8787",
		DefaultDue: "today",
		ExportPath: "export.csv",
	}
}

// LoadOrCreate reads config.toml under root, creating it with defaults
// when missing. Unset keys fall back to their defaults.
func LoadOrCreate(root string) (Config, error) {
	cfg := defaultConfig()
	path := filepath.Join(root, FileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.WebAddr == "" {
		cfg.WebAddr = defaultConfig().WebAddr
	}
	if cfg.DefaultDue == "" {
		cfg.DefaultDue = defaultConfig().DefaultDue
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = defaultConfig().ExportPath
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
