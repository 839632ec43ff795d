// Package sweep drives the notification pipeline on two cadences: due
// pending messages every few minutes, failed ones on a slower retry
// cycle.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/vasitum/interviewsched/internal/notify"
)

type Runner struct {
	pipeline   *notify.Pipeline
	logger     *slog.Logger
	pendingGap time.Duration
	retryGap   time.Duration
}

type Config struct {
	PendingEvery time.Duration
	RetryEvery   time.Duration
}

func NewRunner(pipeline *notify.Pipeline, logger *slog.Logger, cfg Config) *Runner {
	if cfg.PendingEvery <= 0 {
		cfg.PendingEvery = 5 * time.Minute
	}
	if cfg.RetryEvery <= 0 {
		cfg.RetryEvery = 30 * time.Minute
	}
	return &Runner{
		pipeline:   pipeline,
		logger:     logger,
		pendingGap: cfg.PendingEvery,
		retryGap:   cfg.RetryEvery,
	}
}

// Run blocks until ctx is cancelled. Sweep errors are logged and the
// loop keeps going; a flaky store must not kill the worker.
func (r *Runner) Run(ctx context.Context) {
	pending := time.NewTicker(r.pendingGap)
	defer pending.Stop()
	retry := time.NewTicker(r.retryGap)
	defer retry.Stop()

	r.logger.Info("notification sweeper started",
		"pending_every", r.pendingGap.String(),
		"retry_every", r.retryGap.String(),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("notification sweeper stopped")
			return
		case <-pending.C:
			if _, err := r.pipeline.SweepPending(ctx); err != nil {
				r.logger.Error("pending sweep failed", "err", err)
			}
		case <-retry.C:
			if _, err := r.pipeline.RetryFailed(ctx); err != nil {
				r.logger.Error("retry sweep failed", "err", err)
			}
		}
	}
}
