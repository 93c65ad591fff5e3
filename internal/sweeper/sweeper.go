// Package sweeper force-expires verification codes whose window lapsed
// without the code ever being presented again, keeping the audit trail's
// lifecycle flags truthful. Validation does not depend on it: a stale code
// is also rejected (and expired) at confirm time.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/askaruly/shop-auth/internal/metrics"
	"github.com/askaruly/shop-auth/internal/repository"
	"github.com/robfig/cron/v3"
)

const batchSize = 500

type Sweeper struct {
	tokens   repository.TokenRepository
	logger   *slog.Logger
	schedule cron.Schedule
	maxAge   time.Duration
	now      func() time.Time
}

// NewSweeper builds a sweeper firing on the given cron expression
// (standard 5-field specs and @every descriptors).
func NewSweeper(tokens repository.TokenRepository, logger *slog.Logger, scheduleExpr string, maxAge time.Duration) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(scheduleExpr)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", scheduleExpr, err)
	}
	return &Sweeper{
		tokens:   tokens,
		logger:   logger.With("component", "sweeper"),
		schedule: schedule,
		maxAge:   maxAge,
		now:      time.Now,
	}, nil
}

// WithClock overrides the time source. Tests use it to pin the expiry cutoff.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("sweeper started", "max_age", s.maxAge)

	for {
		next := s.schedule.Next(s.now())
		timer := time.NewTimer(next.Sub(s.now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweeper shut down")
			return
		case <-timer.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one expiry pass. Start calls it on schedule; it is also safe to
// trigger manually.
func (s *Sweeper) Sweep(ctx context.Context) {
	cutoff := s.now().Add(-s.maxAge)

	// Batches until a pass comes back empty, so a backlog after downtime
	// clears in one firing.
	for {
		n, err := s.tokens.ExpireStale(ctx, cutoff, batchSize)
		if err != nil {
			s.logger.Error("expire stale tokens", "error", err)
			return
		}
		if n == 0 {
			return
		}
		metrics.StaleTokensSweptTotal.Add(float64(n))
		s.logger.Info("force-expired stale tokens", "count", n)
	}
}
