package app

import (
	"context"
	"errors"
	"fmt"

	"therapyspace/internal/config"
	"therapyspace/internal/database"
	"therapyspace/internal/modules/booking"
	"therapyspace/internal/modules/mybookings"
	"therapyspace/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backends holds the persistence chosen by STORAGE_BACKEND and UNDO_BACKEND.
type Backends struct {
	Repo booking.Repository
	Undo mybookings.UndoStore

	closers []func() error
}

func (b *Backends) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func OpenBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backends, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Backends{}

	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		b.closers = append(b.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		log.Info("redis connected", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
	}

	switch cfg.StorageBackend {
	case config.StorageRedis:
		b.Repo = repository.NewSnapshotRepository(rdb)
	default:
		db, err := database.Connect(cfg.DatabaseURL, log)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			b.closers = append(b.closers, sqlDB.Close)
		}
		if err := repository.Migrate(db); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		b.Repo = repository.NewBookingRepository(db)
	}

	if cfg.UndoBackend == config.UndoRedis {
		b.Undo = mybookings.NewRedisUndoStore(rdb)
	} else {
		b.Undo = mybookings.NewMemoryUndoStore()
	}

	log.Info("storage ready", zap.String("bookings", cfg.StorageBackend), zap.String("undo", cfg.UndoBackend))
	return b, nil
}
