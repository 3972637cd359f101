package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSnapshotScheduler runs SnapshotLockedArenas every interval until the
// returned scheduler is shut down.
func StartSnapshotScheduler(svc StandingsService, interval time.Duration, logger *slog.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			if err := svc.SnapshotLockedArenas(ctx); err != nil {
				logger.Error("scheduler: standings snapshot failed", slog.Any("error", err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to register snapshot job: %w", err)
	}

	sched.Start()
	logger.Info("standings snapshot scheduler started", slog.Duration("interval", interval))
	return sched, nil
}
