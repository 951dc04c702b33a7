package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"therapyspace/internal/app"
	"therapyspace/internal/config"
	"therapyspace/internal/domain"
	"therapyspace/internal/modules/booking"
	"therapyspace/internal/modules/recurrence"
	"therapyspace/internal/pkg/logging"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
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
	err = run(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("seed failed", zap.Error(err))
		_ = logger.Sync()
		log.Fatal(err)
	}
	_ = logger.Sync()
}

// run writes one single session and one weekly series. Storage is closed
// before it returns.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	backends, err := app.OpenBackends(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}
	defer backends.Close()

	directory := app.NewDirectory(cfg)
	store := booking.NewStore(backends.Repo, logger, nil)

	// ================== SINGLE SESSION ==================
	sarah, err := directory.Get("dr-sarah-chen")
	if err != nil {
		return err
	}
	slot, ok := firstOpen(sarah)
	if !ok {
		return fmt.Errorf("no open slot for %s", sarah.ID)
	}

	single, err := store.Create(ctx, domain.Booking{
		ID:               "booking-" + uuid.NewString(),
		PractitionerID:   sarah.ID,
		PractitionerName: sarah.Name,
		Date:             slot.Date,
		Time:             slot.Time,
		ClientName:       "Jane Doe",
		ClientEmail:      "jane@example.com",
		ClientPhone:      "(555) 123-4567",
		ServiceType:      "individual",
		Status:           domain.BookingConfirmed,
	})
	if err != nil {
		return fmt.Errorf("seed single booking: %w", err)
	}
	logger.Info("seeded booking", zap.String("id", single.ID), zap.String("date", single.Date), zap.String("time", single.Time))

	// ================== WEEKLY SERIES ==================
	michael, err := directory.Get("dr-michael-rodriguez")
	if err != nil {
		return err
	}
	start, ok := firstOpen(michael)
	if !ok {
		return fmt.Errorf("no open slot for %s", michael.ID)
	}

	rule := domain.RecurrenceRule{
		Type:        domain.RecurrenceWeekly,
		Interval:    1,
		EndType:     domain.EndByOccurrences,
		Occurrences: 6,
	}
	occurrences, err := recurrence.Expand(start.Date, start.Time, rule, michael)
	if err != nil {
		return fmt.Errorf("expand series: %w", err)
	}

	groupID, series, err := store.CreateRecurringGroup(ctx, domain.Booking{
		PractitionerID:   michael.ID,
		PractitionerName: michael.Name,
		ClientName:       "Sam Lee",
		ClientEmail:      "sam@example.com",
		ClientPhone:      "(555) 987-6543",
		ServiceType:      "couples",
		Notes:            "Prefers afternoon sessions",
		Status:           domain.BookingConfirmed,
	}, recurrence.Available(occurrences), rule)
	if err != nil {
		return fmt.Errorf("seed weekly series: %w", err)
	}
	logger.Info("seeded weekly series",
		zap.String("group_id", groupID),
		zap.Int("booked", len(series)),
		zap.Int("candidates", len(occurrences)),
	)
	return nil
}

func firstOpen(p *domain.Practitioner) (domain.TimeSlot, bool) {
	for _, s := range p.Slots {
		if s.Available {
			return s, true
		}
	}
	return domain.TimeSlot{}, false
}
