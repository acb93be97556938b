// Package backend opens the storage.KV selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gistda/internhub/internal/infrastructure/redis"
	"github.com/gistda/internhub/internal/storage"
	"github.com/gistda/internhub/pkg/config"
	"github.com/gistda/internhub/pkg/database"
)

// Backend is an opened KV plus its health probe and cleanup
type Backend struct {
	Name  string
	KV    storage.KV
	Ping  func(ctx context.Context) error
	Close func() error
}

// Open connects to the backend named by cfg.StorageBackend. Callers that
// share it between data and preferences split the key space with
// storage.Prefixed.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nop := func() error { return nil }
	alive := func(context.Context) error { return nil }

	switch cfg.StorageBackend {
	case config.BackendMemory, "":
		return &Backend{Name: config.BackendMemory, KV: storage.NewMemory(), Ping: alive, Close: nop}, nil

	case config.BackendFile:
		dir := filepath.Join(cfg.StorageDir, "data")
		kv, err := storage.NewFile(dir)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		logger.Info("file storage opened", slog.String("dir", dir))
		return &Backend{Name: config.BackendFile, KV: kv, Ping: alive, Close: nop}, nil

	case config.BackendRedis:
		client, err := redis.NewClient(cfg.RedisURL, "internhub:", logger)
		if err != nil {
			return nil, err
		}
		return &Backend{Name: config.BackendRedis, KV: client, Ping: client.Ping, Close: client.Close}, nil

	case config.BackendPostgres:
		pool, err := database.NewConnectionPool(ctx, &database.Config{
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		}, logger)
		if err != nil {
			return nil, err
		}
		kv, err := database.NewKVStore(ctx, pool.GetDB(), logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return &Backend{Name: config.BackendPostgres, KV: kv, Ping: pool.Health, Close: pool.Close}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
