package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"tastebud/pkg/model"
	"tastebud/pkg/store"
)

// Outcome classifies a cache lookup.
type Outcome int

const (
	Miss Outcome = iota
	Hit
	Expired
	Error
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Expired:
		return "expired"
	case Error:
		return "error"
	default:
		return "miss"
	}
}

// QueryCache is a TTL view over a QueryCacheStore. Rows are never deleted
// here; an entry read at or after its expiry is reported as Expired.
type QueryCache struct {
	store store.QueryCacheStore
	ttl   time.Duration
	now   func() time.Time
}

// New creates a QueryCache. A nil clock means time.Now.
func New(s store.QueryCacheStore, ttl time.Duration, now func() time.Time) *QueryCache {
	if now == nil {
		now = time.Now
	}
	return &QueryCache{store: s, ttl: ttl, now: now}
}

// TTL returns the configured lifetime of an entry.
func (c *QueryCache) TTL() time.Duration { return c.ttl }

// Now returns the cache clock's current time.
func (c *QueryCache) Now() time.Time { return c.now() }

// Lookup returns the entry for (userID, fingerprint) when Outcome is Hit.
// Read errors are logged and reported as Error; callers treat them as a miss.
func (c *QueryCache) Lookup(ctx context.Context, userID, fingerprint string) (*model.CacheEntry, Outcome) {
	e, err := c.store.GetQueryCache(ctx, userID, fingerprint)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Miss
	}
	if err != nil {
		slog.Warn("Query cache read failed", "user", userID, "fingerprint", fingerprint, "error", err)
		return nil, Error
	}
	if !c.now().Before(e.ExpiresAt) {
		return nil, Expired
	}
	return e, Hit
}

// Store upserts payload with expiry now+TTL. now should be taken after the
// upstream response arrived.
func (c *QueryCache) Store(ctx context.Context, userID, fingerprint string, payload json.RawMessage, now time.Time) error {
	return c.store.UpsertQueryCache(ctx, &model.CacheEntry{
		UserID:    userID,
		QueryHash: fingerprint,
		Response:  payload,
		ExpiresAt: now.Add(c.ttl),
	})
}

// Sweep deletes rows that have expired as of the cache clock.
func (c *QueryCache) Sweep(ctx context.Context) (int64, error) {
	return c.store.DeleteExpiredQueryCache(ctx, c.now())
}
