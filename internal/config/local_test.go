package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDarasaDir(t *testing.T) {
	dir, err := DarasaDir()
	if err != nil {
		t.Fatalf("DarasaDir() error = %v", err)
	}

	if filepath.Base(dir) != ".darasa" {
		t.Errorf("DarasaDir() = %q, want ending with .darasa", dir)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("DarasaDir() = %q, want absolute path", dir)
	}
}

func TestEnsureDarasaDir(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)

	tmpHome := t.TempDir()
	os.Setenv("HOME", tmpHome)

	dir, err := EnsureDarasaDir()
	if err != nil {
		t.Fatalf("EnsureDarasaDir() error = %v", err)
	}

	expectedDir := filepath.Join(tmpHome, ".darasa")
	if dir != expectedDir {
		t.Errorf("EnsureDarasaDir() = %q, want %q", dir, expectedDir)
	}

	for _, subdir := range []string{"logs", "units"} {
		path := filepath.Join(dir, subdir)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("EnsureDarasaDir() should create %s", subdir)
		}
	}
}

func TestDefaultLocalConfig(t *testing.T) {
	cfg := DefaultLocalConfig()
	if cfg == nil {
		t.Fatal("DefaultLocalConfig() returned nil")
	}

	if cfg.Daemon.Port != 7433 {
		t.Errorf("Daemon.Port = %d, want 7433", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("Daemon.Bind = %q, want 127.0.0.1", cfg.Daemon.Bind)
	}
	if cfg.Daemon.LogLevel != "info" {
		t.Errorf("Daemon.LogLevel = %q, want info", cfg.Daemon.LogLevel)
	}
}

func TestLoadLocalConfig_MissingFileUsesDefaults(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)
	os.Setenv("HOME", t.TempDir())

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if cfg.Daemon.Port != 7433 {
		t.Errorf("Daemon.Port = %d, want 7433", cfg.Daemon.Port)
	}
}

func TestLoadLocalConfig_ReadsFile(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)

	tmpHome := t.TempDir()
	os.Setenv("HOME", tmpHome)

	dir := filepath.Join(tmpHome, ".darasa")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data := []byte("daemon:\n  port: 9999\nstorage:\n  path: custom.db\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if cfg.Daemon.Port != 9999 {
		t.Errorf("Daemon.Port = %d, want 9999", cfg.Daemon.Port)
	}
	if cfg.Storage.Path != filepath.Join(dir, "custom.db") {
		t.Errorf("Storage.Path = %q, want resolved under %q", cfg.Storage.Path, dir)
	}
	// Untouched fields keep their defaults
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("Daemon.Bind = %q, want 127.0.0.1", cfg.Daemon.Bind)
	}
}
