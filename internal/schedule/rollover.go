// Package schedule triggers the month-end rollover: once at startup and
// every midnight in the canonical timezone.
package schedule

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"taktsiv/internal/core"
)

// Roller runs the rollover when the previous month is not archived yet.
// Satisfied by the ledger service.
type Roller interface {
	RolloverIfDue(ctx context.Context) (bool, error)
}

// RolloverScheduler wraps a cron runner around the rollover check. The
// check itself is month-guarded, so an extra fire does nothing.
type RolloverScheduler struct {
	roller Roller
	logger *slog.Logger
	cron   *cron.Cron
}

func NewRolloverScheduler(roller Roller, logger *slog.Logger) *RolloverScheduler {
	return &RolloverScheduler{
		roller: roller,
		logger: logger,
		cron:   cron.New(cron.WithLocation(core.Location())),
	}
}

// Start runs the startup check and then schedules the midnight job. It
// returns an error only when the cron spec fails to register; a failed
// rollover check is logged and retried at the next fire.
func (s *RolloverScheduler) Start(ctx context.Context) error {
	s.check(ctx)

	_, err := s.cron.AddFunc("@midnight", func() { s.check(ctx) })
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.InfoContext(ctx, "rollover scheduler started",
		"component", "schedule",
		"timezone", core.DefaultTimezone)
	return nil
}

// Stop halts the cron runner and waits for a running job to finish.
func (s *RolloverScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *RolloverScheduler) check(ctx context.Context) {
	ran, err := s.roller.RolloverIfDue(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "rollover check failed",
			"component", "schedule",
			"error", err)
		return
	}
	if ran {
		s.logger.InfoContext(ctx, "scheduled rollover executed", "component", "schedule")
	}
}
