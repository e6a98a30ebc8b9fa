package market

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the wall-clock period between ticks.
const DefaultInterval = 5 * time.Second

// TickFunc performs one simulation step.
type TickFunc func() error

// Runner drives a TickFunc on a fixed interval from a single goroutine,
// so ticks never overlap.
type Runner struct {
	interval time.Duration
	tick     TickFunc
	logger   *zap.Logger
	deferred bool

	ticks    uint64
	failures uint64
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithoutInitialTick makes Run wait one full interval before the first tick,
// for callers that already ticked themselves.
func WithoutInitialTick() RunnerOption {
	return func(r *Runner) {
		r.deferred = true
	}
}

// NewRunner creates a runner. A non-positive interval falls back to DefaultInterval.
func NewRunner(interval time.Duration, tick TickFunc, logger *zap.Logger, opts ...RunnerOption) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	r := &Runner{
		interval: interval,
		tick:     tick,
		logger:   logger.Named("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run ticks once immediately, unless built WithoutInitialTick, and then on
// every interval until ctx is done. Failed ticks are logged and skipped.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("Starting price runner", zap.Duration("interval", r.interval))

	if !r.deferred {
		r.runOnce()
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.runOnce()
		case <-ctx.Done():
			r.logger.Debug("Price runner stopped",
				zap.Uint64("ticks", r.ticks),
				zap.Uint64("failures", r.failures))
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		}
	}
}

// Stats returns the number of ticks run and how many of them failed.
// Only safe to call after Run has returned.
func (r *Runner) Stats() (ticks, failures uint64) {
	return r.ticks, r.failures
}

func (r *Runner) runOnce() {
	r.ticks++
	if err := r.tick(); err != nil {
		r.failures++
		r.logger.Error("Price update failed, keeping previous state", zap.Error(err))
	}
}
