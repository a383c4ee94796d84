package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig holds configuration for local daemon mode, where storage is
// SQLite and units load from a local directory.
type LocalConfig struct {
	Daemon  DaemonConfig  `yaml:"daemon"`
	Storage StorageConfig `yaml:"storage"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
}

// StorageConfig holds local storage settings
type StorageConfig struct {
	Path string `yaml:"path"`
}

// CatalogConfig holds local catalog settings
type CatalogConfig struct {
	UnitsPath string `yaml:"units_path"`
}

// DarasaDir returns the path to ~/.darasa
func DarasaDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".darasa"), nil
}

// EnsureDarasaDir creates ~/.darasa and subdirectories if they don't exist
func EnsureDarasaDir() (string, error) {
	dir, err := DarasaDir()
	if err != nil {
		return "", err
	}

	for _, subdir := range []string{"", "logs", "units"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local mode
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7433,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		Storage: StorageConfig{
			Path: "darasa.db",
		},
		Catalog: CatalogConfig{
			UnitsPath: "units",
		},
	}
}

// LoadLocalConfig loads configuration from ~/.darasa/config.yaml, falling
// back to defaults when the file does not exist.
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := DarasaDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, "config.yaml")

	cfg := DefaultLocalConfig()
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Relative paths resolve against the darasa dir.
	if !filepath.IsAbs(cfg.Storage.Path) {
		cfg.Storage.Path = filepath.Join(dir, cfg.Storage.Path)
	}
	if !filepath.IsAbs(cfg.Catalog.UnitsPath) {
		cfg.Catalog.UnitsPath = filepath.Join(dir, cfg.Catalog.UnitsPath)
	}

	return cfg, nil
}
