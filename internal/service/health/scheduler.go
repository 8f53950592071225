package health

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the probe batch on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	svc    *Service
	logger *slog.Logger
}

// NewScheduler creates a probe scheduler.
func NewScheduler(svc *Service, logger *slog.Logger) *Scheduler {
	return &Scheduler{cron: cron.New(), svc: svc, logger: logger}
}

// Start registers the probe batch under the given cron expression
// (e.g. "@every 5m") and starts the scheduler.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx := context.Background()
		if err := s.svc.RunAll(ctx); err != nil {
			s.logger.Warn("scheduled probe batch failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("health probe scheduler started", "schedule", schedule)
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("health probe scheduler stopped")
}
