package main

import (
	"context"
	"fmt"
	"time"

	"github.com/learnhub/catalog-service/internal/catalog/repository"
	"github.com/learnhub/catalog-service/internal/config"
	"github.com/learnhub/catalog-service/internal/database"
	"github.com/learnhub/catalog-service/internal/storage"
	"github.com/learnhub/catalog-service/pkg/logger"
)

// mongoInitialBackoff is the first wait between MongoDB connect attempts.
var mongoInitialBackoff = time.Second

// openStore builds the store named by cfg.Store.Backend.
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return repository.NewMemoryStore(), nil

	case config.BackendFile:
		fs, err := storage.NewFileStore(cfg.Store.FileDir)
		if err != nil {
			return nil, err
		}
		return repository.OpenSnapshotStore(ctx, config.BackendFile, fs)

	case config.BackendMinIO:
		ms, err := storage.NewMinIOStorage(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		return repository.OpenSnapshotStore(ctx, config.BackendMinIO, ms)

	case config.BackendMongo:
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout,
			cfg.MongoDB.ConnectAttempts, mongoInitialBackoff)
		if err != nil {
			return nil, err
		}
		return repository.NewMongoStore(client.Database(cfg.MongoDB.Database)), nil

	case config.BackendRedis:
		client, err := database.ConnectRedis(ctx, database.RedisOptions{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, 5*time.Second)
		if err != nil {
			return nil, err
		}
		return repository.NewRedisStore(client, cfg.Redis.KeyPrefix), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// openStoreOrMemory falls back to the in-memory store when the configured
// backend is unreachable and cfg.Store.FallbackToMemory allows it.
func openStoreOrMemory(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		if !cfg.Store.FallbackToMemory {
			return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
		}
		logger.Warnf("cannot open %s store (%v); using memory-backed store, data will not survive a restart", cfg.Store.Backend, err)
		return repository.NewMemoryStore(), nil
	}
	logger.Infof("using %s store", store.Backend)
	return store, nil
}
