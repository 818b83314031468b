package backend

import (
	"context"
	"fmt"
	"log/slog"

	"moneygrowth/internal/storage"
	"moneygrowth/internal/store"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		return f.createFileBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createFileBackend(config Config) (*Result, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	st, err := store.NewFromFile(dataDir)
	if err != nil {
		return nil, fmt.Errorf("initialize file store: %w", err)
	}

	f.logger.Info("Initialized file backend", "data_directory", dataDir)

	return &Result{
		Backend: st,
		Cleanup: nil,
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}
