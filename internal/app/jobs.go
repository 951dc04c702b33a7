package app

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type sweeper interface {
	Sweep() int
}

// Sweep drops idle wizard sessions and expired in-memory undo tokens.
// Redis-held undo tokens expire on their own.
func (a *App) Sweep() {
	sessions := a.Sessions.Sweep()

	expired := 0
	if s, ok := a.undo.(sweeper); ok {
		expired = s.Sweep()
	}
	a.Metrics.ObserveUndoExpired(expired)

	if sessions > 0 || expired > 0 {
		a.log.Debug("sweep finished", zap.Int("sessions", sessions), zap.Int("undo_tokens", expired))
	}
}

// StartScheduler runs Sweep on schedule and resets the submit rate limiter
// every hour. Stop the returned scheduler on shutdown.
func (a *App) StartScheduler(schedule string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, a.Sweep); err != nil {
		return nil, fmt.Errorf("add sweep job %q: %w", schedule, err)
	}
	if _, err := c.AddFunc("@hourly", a.Limiter.Reset); err != nil {
		return nil, fmt.Errorf("add limiter reset job: %w", err)
	}
	c.Start()
	a.log.Info("scheduler started", zap.String("sweep_schedule", schedule))
	return c, nil
}
