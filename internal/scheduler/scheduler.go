// Package scheduler runs the periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stwalsh4118/brokerage/internal/config"
	"github.com/stwalsh4118/brokerage/internal/logger"
)

const (
	// SweepSchedule is how often idle rate limiter entries are dropped.
	SweepSchedule = "@every 1m"
	// JobTimeout bounds a single cleanup run.
	JobTimeout = time.Minute
)

// TokenCleaner deletes links that expired long enough ago.
type TokenCleaner interface {
	CleanupExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// Sweeper forgets clients idle for longer than idle.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// Scheduler handles scheduled maintenance tasks.
type Scheduler struct {
	cron      *cron.Cron
	tokens    TokenCleaner
	limiter   Sweeper
	log       *logger.Logger
	retention time.Duration
	idle      time.Duration
}

// New registers the token cleanup on cfg.CleanupSchedule and, when limiter is
// set, a sweep of clients idle for longer than idle.
func New(cfg config.TokenConfig, tokens TokenCleaner, limiter Sweeper, idle time.Duration, log *logger.Logger) (*Scheduler, error) {
	cronLog := log.CronLogger()
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		tokens:    tokens,
		limiter:   limiter,
		log:       log,
		retention: cfg.Retention,
		idle:      idle,
	}

	if _, err := s.cron.AddFunc(cfg.CleanupSchedule, s.cleanupJob); err != nil {
		return nil, fmt.Errorf("failed to schedule token cleanup %q: %w", cfg.CleanupSchedule, err)
	}
	if limiter != nil {
		if _, err := s.cron.AddFunc(SweepSchedule, s.sweepJob); err != nil {
			return nil, fmt.Errorf("failed to schedule rate limiter sweep: %w", err)
		}
	}
	return s, nil
}

// RunCleanup deletes expired links once and reports how many went.
func (s *Scheduler) RunCleanup(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, JobTimeout)
	defer cancel()

	deleted, err := s.tokens.CleanupExpired(ctx, s.retention)
	if err != nil {
		return 0, fmt.Errorf("token cleanup failed: %w", err)
	}
	return deleted, nil
}

func (s *Scheduler) cleanupJob() {
	deleted, err := s.RunCleanup(context.Background())
	if err != nil {
		s.log.Error("Scheduled token cleanup failed", err, nil)
		return
	}
	if deleted > 0 {
		s.log.Info("Expired tokens removed", map[string]interface{}{
			"deleted":   deleted,
			"retention": s.retention.String(),
		})
	}
}

func (s *Scheduler) sweepJob() {
	if n := s.limiter.Sweep(s.idle); n > 0 {
		s.log.Debug("Rate limiter swept", map[string]interface{}{"removed": n})
	}
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start runs the jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started", map[string]interface{}{"jobs": s.Jobs()})
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Scheduler stopped", nil)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler did not stop in time: %w", ctx.Err())
	}
}
