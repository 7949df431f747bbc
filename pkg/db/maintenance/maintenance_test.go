package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tastebud/pkg/db"
	"tastebud/pkg/model"
	"tastebud/pkg/store"
)

func TestMaintenance(t *testing.T) {
	tempDir := t.TempDir()
	d, err := db.Init(filepath.Join(tempDir, "maint_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	s := store.NewSQLiteStore(d)
	ctx := context.Background()
	now := time.Now()

	entries := map[string]time.Duration{
		"stale": -2 * time.Hour,
		"fresh": 5 * time.Minute,
	}
	for hash, offset := range entries {
		err := s.UpsertQueryCache(ctx, &model.CacheEntry{
			UserID: "u1", QueryHash: hash, Response: json.RawMessage(`{"results":[]}`), ExpiresAt: now.Add(offset),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := Run(ctx, s, now); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if _, err := s.GetQueryCache(ctx, "u1", "stale"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("stale entry should be pruned, got %v", err)
	}
	if _, err := s.GetQueryCache(ctx, "u1", "fresh"); err != nil {
		t.Errorf("fresh entry should survive, got %v", err)
	}
}

type failingCache struct{ store.QueryCacheStore }

func (failingCache) DeleteExpiredQueryCache(context.Context, time.Time) (int64, error) {
	return 0, errors.New("disk I/O error")
}

func TestMaintenance_Error(t *testing.T) {
	err := Run(context.Background(), failingCache{}, time.Now())
	if err == nil {
		t.Fatal("expected error from failing store")
	}
}
