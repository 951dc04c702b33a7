package main

import (
	"context"
	"flag"
	"log"
	"time"

	"therapyspace/internal/app"
	"therapyspace/internal/config"
	"therapyspace/internal/modules/booking"
	"therapyspace/internal/pkg/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	retention := flag.Duration("retention", 30*24*time.Hour, "purge cancelled bookings whose session date is older than this")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	err = run(ctx, cfg, logger, time.Now().UTC().Add(-*retention))
	cancel()
	if err != nil {
		logger.Error("booking cleanup failed", zap.Error(err))
		_ = logger.Sync()
		log.Fatal(err)
	}
	_ = logger.Sync()
}

// run purges cancelled bookings dated before cutoff. Storage is closed
// before it returns, error or not.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, cutoff time.Time) error {
	backends, err := app.OpenBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	store := booking.NewStore(backends.Repo, logger, nil)
	n, err := store.PurgeCancelled(ctx, cutoff)
	if err != nil {
		return err
	}

	logger.Info("booking cleanup completed", zap.Int("purged", n), zap.Time("before", cutoff))
	return nil
}
