package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/socialdesk/core/internal/infrastructure/database"
)

const (
	getQuery    = `SELECT value FROM kv_entries WHERE key = ?`
	deleteQuery = `DELETE FROM kv_entries WHERE key = ?`
	upsertQuery = `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
)

// SQLStore keeps values in the kv_entries table of a postgres or sqlite
// database. The schema comes from the database migrations.
type SQLStore struct {
	db *database.DB
}

// NewSQLStore wraps an open, migrated database.
func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.DB.GetContext(ctx, &value, s.db.DB.Rebind(getQuery), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.DB.ExecContext(ctx, s.db.DB.Rebind(upsertQuery), key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.DB.ExecContext(ctx, s.db.DB.Rebind(deleteQuery), key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
