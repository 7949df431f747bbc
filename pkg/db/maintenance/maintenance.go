package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tastebud/pkg/store"
)

// Run executes startup maintenance: purging expired query cache rows.
// It blocks until completion.
func Run(ctx context.Context, s store.QueryCacheStore, now time.Time) error {
	slog.Info("Starting database maintenance...")

	n, err := PruneQueryCache(ctx, s, now)
	if err != nil {
		slog.Error("Cache pruning failed", "error", err)
		return err
	}
	slog.Info("Cache pruning completed", "deleted", n)
	return nil
}

// PruneQueryCache deletes cache rows whose expiry is at or before now.
func PruneQueryCache(ctx context.Context, s store.QueryCacheStore, now time.Time) (int64, error) {
	n, err := s.DeleteExpiredQueryCache(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired cache rows: %w", err)
	}
	return n, nil
}
