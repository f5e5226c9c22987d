package kv

import (
	"context"
	"fmt"

	"github.com/socialdesk/core/internal/infrastructure/config"
	"github.com/socialdesk/core/internal/infrastructure/database"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/ports"
)

// Open builds the backend selected by cfg.Storage.Backend. SQL backends are
// migrated before use.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.KVStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendDiskv:
		return NewDiskvStore(cfg.Diskv)
	case config.BackendRedis:
		return NewRedisStore(ctx, cfg.Redis, log)
	case config.BackendPostgres, config.BackendSQLite:
		dbCfg := cfg.Database
		dbCfg.Driver = cfg.Storage.Backend
		db, err := database.New(dbCfg)
		if err != nil {
			return nil, err
		}
		mg, err := database.NewMigrator(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := mg.Up(); err != nil {
			db.Close()
			return nil, err
		}
		log.Infow("Storage ready", "backend", cfg.Storage.Backend)
		return NewSQLStore(db), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
