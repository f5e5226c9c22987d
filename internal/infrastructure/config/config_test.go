package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Backend != BackendDiskv {
		t.Errorf("backend = %q, want diskv", cfg.Storage.Backend)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Dispatcher.Interval != 30*time.Second {
		t.Errorf("dispatcher interval = %v", cfg.Dispatcher.Interval)
	}
	if cfg.Platform.SuccessRate != 0.9 {
		t.Errorf("success rate = %v", cfg.Platform.SuccessRate)
	}
	if cfg.Dispatcher.MediaDir != "media" {
		t.Errorf("media dir = %q", cfg.Dispatcher.MediaDir)
	}
}

func TestLoggerFormatFollowsEnvironment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		format      string
		want        string
	}{
		{"development", "development", "", "console"},
		{"production", "production", "", "json"},
		{"staging", "staging", "", "json"},
		{"explicit wins", "development", "json", "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			t.Setenv("APP_ENVIRONMENT", tt.environment)
			if tt.format != "" {
				t.Setenv("LOG_FORMAT", tt.format)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Logger.Format != tt.want {
				t.Errorf("format = %q, want %q", cfg.Logger.Format, tt.want)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	resetViper(t)
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("STORE_LATENCY", "300ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Backend != BackendSQLite || cfg.Database.Driver != BackendSQLite {
		t.Errorf("backend = %q driver = %q", cfg.Storage.Backend, cfg.Database.Driver)
	}
	if cfg.Database.GetDSN() != "/tmp/x.db" {
		t.Errorf("dsn = %q", cfg.Database.GetDSN())
	}
	if cfg.Store.Latency != 300*time.Millisecond {
		t.Errorf("latency = %v", cfg.Store.Latency)
	}
}

func TestLoadFile(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "storage:\n  backend: memory\nserver:\n  port: 9000\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Storage.Backend != BackendMemory || cfg.Server.Port != 9000 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	resetViper(t)
	t.Setenv("STORAGE_BACKEND", "floppy")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	viper.Reset()
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("PLATFORM_SUCCESS_RATE", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for success rate out of range")
	}
}
