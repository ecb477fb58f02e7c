// Package app wires configuration into the ledger for the rewards binaries.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"activityrewards/config"
	"activityrewards/core/ledger"
	"activityrewards/native/rewards"
	"activityrewards/observability/logging"
	"activityrewards/storage"
	"activityrewards/storage/sqlstore"
)

// OpenDatabase opens the backend selected by cfg.Storage.
func OpenDatabase(cfg *config.Config) (storage.Database, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return storage.NewMemDB(), nil
	case config.BackendLevelDB:
		path := cfg.LevelDBPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := storage.NewLevelDB(path)
		if err != nil {
			return nil, fmt.Errorf("open leveldb %s: %w", path, err)
		}
		return db, nil
	case config.BackendSQLite:
		dsn := cfg.SQLDSN()
		if cfg.Storage.DSN == "" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		return sqlstore.Open(sqlstore.DriverSQLite, dsn)
	case config.BackendPostgres:
		return sqlstore.Open(sqlstore.DriverPostgres, cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// NewEngine builds the pricing engine from cfg.
func NewEngine(cfg *config.Config) (*rewards.Engine, error) {
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	return rewards.NewEngine(catalog, cfg.Params())
}

// NewProcessor builds the engine and binds it to db.
func NewProcessor(cfg *config.Config, db storage.Database, opts ...ledger.Option) (*ledger.Processor, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return ledger.NewProcessor(engine, ledger.NewStore(db), opts...)
}

// SetupLogging installs the service logger described by cfg.Logging.
func SetupLogging(service string, cfg *config.Config) *slog.Logger {
	return logging.SetupWithOptions(service, cfg.Environment, logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
}
