package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/socialdesk/core/internal/infrastructure/config"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/ports"
)

var (
	_ ports.KVStore = (*MemoryStore)(nil)
	_ ports.KVStore = (*DiskvStore)(nil)
	_ ports.KVStore = (*RedisStore)(nil)
	_ ports.KVStore = (*SQLStore)(nil)
)

func exerciseStore(t *testing.T, s ports.KVStore) {
	t.Helper()
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	if _, ok, err := s.Get(ctx, ports.KeyTasks); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := s.Set(ctx, ports.KeyTasks, `[{"id":"1"}]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, ports.KeyTasks, `[]`); err != nil {
		t.Fatalf("overwrite Set() error = %v", err)
	}
	got, ok, err := s.Get(ctx, ports.KeyTasks)
	if err != nil || !ok || got != `[]` {
		t.Fatalf("Get() = %q, %v, %v", got, ok, err)
	}

	if err := s.Set(ctx, ports.KeyPosts, "posts"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, ports.KeyTasks); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, ports.KeyTasks); err != nil {
		t.Fatalf("Delete(missing) error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, ports.KeyTasks); ok {
		t.Fatal("deleted key still present")
	}
	if got, ok, _ := s.Get(ctx, ports.KeyPosts); !ok || got != "posts" {
		t.Fatalf("unrelated key lost: %q %v", got, ok)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestDiskvStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskvStore(config.DiskvConfig{BasePath: dir, CacheSizeMax: 1024})
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)

	if _, err := os.Stat(filepath.Join(dir, "socialdesk", "posts")); err != nil {
		t.Fatalf("expected namespaced file: %v", err)
	}

	reopened, _ := NewDiskvStore(config.DiskvConfig{BasePath: dir})
	if got, ok, _ := reopened.Get(context.Background(), ports.KeyPosts); !ok || got != "posts" {
		t.Fatalf("value not durable: %q %v", got, ok)
	}
}

func TestSQLiteStore(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.BackendSQLite},
		Database: config.DatabaseConfig{
			SQLitePath: filepath.Join(t.TempDir(), "kv.db"),
		},
	}
	s, err := Open(context.Background(), cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, ok := s.(*SQLStore); !ok {
		t.Fatalf("Open() returned %T", s)
	}
	exerciseStore(t, s)
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "tape"}}
	if _, err := Open(context.Background(), cfg, logger.NewNop()); err == nil {
		t.Fatal("expected error")
	}
}
