package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"ev-configurator-backend/internal/config"
)

// New создаёт хранилище по настройкам.
func New(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		logger.Info().Str("backend", config.BackendMemory).Msg("snapshot store initialized")
		return NewMemoryStore(), nil

	case config.BackendPostgres:
		s, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		logger.Info().Str("backend", cfg.Backend).Msg("snapshot store initialized")
		return s, nil

	case config.BackendSQLite:
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("backend", cfg.Backend).Str("path", cfg.SQLitePath).Msg("snapshot store initialized")
		return s, nil

	case config.BackendRedis:
		return OpenRedis(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)

	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: memory, postgres, sqlite, redis)", cfg.Backend)
	}
}
