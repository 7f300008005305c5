// Package scheduler runs periodic maintenance of the sync engine.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	costsync "github.com/xelth-com/eckcosting/internal/sync"
)

// Sweeper raises alerts for actions the backend never confirmed
type Sweeper interface {
	SweepPending(ctx context.Context) ([]costsync.PendingAction, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. schedule uses the standard
// 5-field cron syntax or descriptors such as "@every 30s".
func NewScheduler(schedule string, sweeper Sweeper, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(),
		sweeper:  sweeper,
		schedule: schedule,
		timeout:  10 * time.Second,
		logger:   logger,
	}
}

// Start registers the watchdog and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("watchdog", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.sweepPending); err != nil {
		return fmt.Errorf("invalid watchdog schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepPending() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	expired, err := s.sweeper.SweepPending(ctx)
	if err != nil {
		s.logger.Warn("pending sweep failed", zap.Error(err))
		return
	}
	if len(expired) > 0 {
		s.logger.Info("unconfirmed actions flagged", zap.Int("count", len(expired)))
	}
}
