package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"github.com/socialdesk/core/internal/infrastructure/config"
)

// DiskvStore persists each key as a file under a base directory. Keys of
// the form "namespace:name" map to namespace/name.
type DiskvStore struct {
	basePath string
	d        *diskv.Diskv
}

// NewDiskvStore opens (creating if needed) a store rooted at cfg.BasePath.
func NewDiskvStore(cfg config.DiskvConfig) (*DiskvStore, error) {
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create diskv base path: %w", err)
	}

	d := diskv.New(diskv.Options{
		BasePath:          cfg.BasePath,
		TempDir:           filepath.Join(cfg.BasePath, ".tmp"),
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		CacheSizeMax:      cfg.CacheSizeMax,
	})
	return &DiskvStore{basePath: cfg.BasePath, d: d}, nil
}

func keyToPath(key string) *diskv.PathKey {
	parts := strings.Split(key, ":")
	last := len(parts) - 1
	return &diskv.PathKey{
		Path:     parts[:last],
		FileName: parts[last],
	}
}

func pathToKey(pathKey *diskv.PathKey) string {
	return strings.Join(append(append([]string{}, pathKey.Path...), pathKey.FileName), ":")
}

func (s *DiskvStore) Get(_ context.Context, key string) (string, bool, error) {
	if !s.d.Has(key) {
		return "", false, nil
	}
	b, err := s.d.Read(key)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(b), true, nil
}

func (s *DiskvStore) Set(_ context.Context, key, value string) error {
	if err := s.d.WriteString(key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *DiskvStore) Delete(_ context.Context, key string) error {
	if err := s.d.Erase(key); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to erase %s: %w", key, err)
	}
	return nil
}

// Ping checks the base directory is still reachable.
func (s *DiskvStore) Ping(context.Context) error {
	info, err := os.Stat(s.basePath)
	if err != nil {
		return fmt.Errorf("diskv base path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("diskv base path %s is not a directory", s.basePath)
	}
	return nil
}

func (s *DiskvStore) Close() error { return nil }
