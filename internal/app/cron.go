package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/keyxmakerx/courier/internal/plugins/audit"
)

// StartCleanupSchedule starts the in-process log cleanup scheduler if a
// schedule is configured. Returns a stop function; a nil schedule returns a
// no-op stop so callers don't have to branch.
//
// The HTTP trigger (POST /cron/cleanup-logs) stays available either way for
// deployments that prefer an external scheduler.
func (a *App) StartCleanupSchedule(auditService audit.Service) func() {
	schedule := a.Config.Cron.Schedule
	if schedule == "" {
		return func() {}
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		deleted, err := auditService.Cleanup(ctx)
		if err != nil {
			slog.Error("scheduled log cleanup failed", slog.Any("error", err))
			return
		}
		slog.Info("scheduled log cleanup complete",
			slog.Int("deleted_buckets", len(deleted)),
		)
	})
	if err != nil {
		slog.Error("invalid cleanup schedule, internal scheduler disabled",
			slog.String("schedule", schedule),
			slog.Any("error", err),
		)
		return func() {}
	}

	c.Start()
	slog.Info("log cleanup scheduled", slog.String("schedule", schedule))

	return func() {
		ctx := c.Stop()
		<-ctx.Done()
	}
}
