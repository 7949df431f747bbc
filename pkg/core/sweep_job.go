package core

import (
	"context"
	"log/slog"
	"time"

	"tastebud/pkg/metrics"
)

// Sweeper deletes expired cache rows.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// NewCacheSweepJob returns a job that deletes expired query cache rows
// every interval. A zero interval yields a job that never fires.
func NewCacheSweepJob(s Sweeper, interval time.Duration) *TimeJob {
	return NewTimeJob("CacheSweep", interval, func(ctx context.Context, _ time.Time) {
		start := time.Now()
		n, err := s.Sweep(ctx)
		if err != nil {
			slog.Error("Cache sweep failed", "error", err)
			return
		}
		metrics.AddSweepDeleted(n)
		if n > 0 {
			slog.Debug("Cache sweep completed", "deleted", n, "duration", time.Since(start))
		}
	})
}
