// Package backend builds the document store for the configured backend.
package backend

import (
	"fmt"
	"log/slog"

	"taktsiv/internal/config"
	"taktsiv/internal/storage"
)

// Type identifies a document store backend.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
	RedisBackend  Type = "redis"
)

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, RedisBackend:
		return true
	}
	return false
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result carries the ready store and its cleanup.
type Result struct {
	Store   *storage.Store
	Cleanup CleanupFunc
}

// Factory creates document stores based on configuration
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateStore builds the driver named by cfg.DataBackend and wraps it in a
// typed document store.
func (f *Factory) CreateStore(cfg *config.Config) (*Result, error) {
	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch backendType {
	case SQLiteBackend:
		driver, err := storage.NewSQLiteDriver(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite driver: %w", err)
		}
		f.logger.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: storage.NewStore(driver), Cleanup: driver.Close}, nil

	case RedisBackend:
		driver, err := storage.NewRedisDriver(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis driver: %w", err)
		}
		f.logger.Info("Initialized redis backend", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return &Result{Store: storage.NewStore(driver), Cleanup: driver.Close}, nil

	default:
		driver := storage.NewMemoryDriver()
		f.logger.Info("Initialized memory backend")
		return &Result{Store: storage.NewStore(driver), Cleanup: driver.Close}, nil
	}
}
