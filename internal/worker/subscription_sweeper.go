package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/growen-ao/growen-api/internal/pkg/logger"
)

// Expirer downgrades subscriptions whose paid period has ended
type Expirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// SubscriptionSweeper runs an Expirer on a cron schedule
type SubscriptionSweeper struct {
	expirer  Expirer
	schedule string
	logger   *logger.Logger

	scheduler *cron.Cron
}

// NewSubscriptionSweeper validates schedule and creates the sweeper
func NewSubscriptionSweeper(expirer Expirer, schedule string, log *logger.Logger) (*SubscriptionSweeper, error) {
	if schedule == "" {
		schedule = "@hourly"
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule: %w", err)
	}
	return &SubscriptionSweeper{
		expirer:  expirer,
		schedule: schedule,
		logger:   log,
	}, nil
}

// Start sweeps once, then on every tick of the schedule until ctx is
// cancelled. It blocks.
func (s *SubscriptionSweeper) Start(ctx context.Context) error {
	s.scheduler = cron.New(cron.WithLocation(time.UTC))
	if _, err := s.scheduler.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("schedule subscription sweep: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"schedule": s.schedule,
	}).Info("Starting subscription sweeper")

	s.Sweep(ctx)
	s.scheduler.Start()

	<-ctx.Done()
	stopped := s.scheduler.Stop()
	<-stopped.Done()

	s.logger.Info("Subscription sweeper stopped")
	return nil
}

// Sweep runs one expiry pass and returns how many accounts were downgraded
func (s *SubscriptionSweeper) Sweep(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	n, err := s.expirer.ExpireDue(ctx)
	if err != nil {
		s.logger.ErrorWithErr(err, "Subscription sweep failed")
	}
	if n > 0 {
		s.logger.WithFields(map[string]interface{}{
			"expired": n,
		}).Info("Expired subscriptions downgraded")
	}
	return n
}
