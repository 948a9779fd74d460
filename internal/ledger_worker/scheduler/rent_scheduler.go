// Package scheduler runs the periodic rent accrual job.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/residential-billing-ledger/internal/config"
	"github.com/robfig/cron/v3"
)

// ActiveAccruer posts due rent for every active resident
type ActiveAccruer interface {
	RefreshActive(ctx context.Context, today time.Time) (int, error)
}

// RentScheduler triggers rent accrual on a cron schedule evaluated in UTC
type RentScheduler struct {
	cron         *cron.Cron
	accruer      ActiveAccruer
	timeout      time.Duration
	runOnStartup bool
	logger       *slog.Logger
	now          func() time.Time
}

func NewRentScheduler(logger *slog.Logger, cfg *config.RentConfig, accruer ActiveAccruer) (*RentScheduler, error) {
	s := &RentScheduler{
		cron:         cron.New(cron.WithLocation(time.UTC)),
		accruer:      accruer,
		timeout:      cfg.AccrualTimeout,
		runOnStartup: cfg.RunOnStartup,
		logger:       logger,
		now:          time.Now,
	}

	if _, err := s.cron.AddFunc(cfg.AccrualCron, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("failed to schedule rent accrual %q: %w", cfg.AccrualCron, err)
	}
	return s, nil
}

// Start runs the schedule until ctx is cancelled, then waits for a running job to finish.
func (s *RentScheduler) Start(ctx context.Context) {
	if s.runOnStartup {
		go s.RunOnce(ctx)
	}

	s.cron.Start()
	s.logger.Info("Rent accrual scheduled", "entries", len(s.cron.Entries()))

	<-ctx.Done()
	s.logger.Info("Stopping rent accrual scheduler")
	<-s.cron.Stop().Done()
}

// RunOnce accrues rent for all active residents, bounded by the configured timeout.
func (s *RentScheduler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := s.now()
	s.logger.Info("Starting rent accrual run")

	posted, err := s.accruer.RefreshActive(ctx, started.UTC())
	if err != nil {
		s.logger.Error("Rent accrual finished with errors",
			"charges_posted", posted,
			"duration", time.Since(started).String(),
			"error", err,
		)
		return
	}

	s.logger.Info("Rent accrual finished",
		"charges_posted", posted,
		"duration", time.Since(started).String(),
	)
}
