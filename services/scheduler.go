package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const resetTimeout = 30 * time.Second

// NewResetScheduler clears the schedule on the given cron spec (with a seconds
// field, e.g. "0 0 4 * * *"). The returned scheduler is not started.
func NewResetScheduler(spec string, courts CourtService, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
		defer cancel()

		logger.Info("scheduler: clearing today's schedule")
		if err := courts.ClearTodaySchedule(ctx); err != nil {
			logger.Error("scheduler: reset failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reset schedule %q: %w", spec, err)
	}
	return c, nil
}
