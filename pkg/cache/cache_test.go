package cache

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tastebud/pkg/db"
	"tastebud/pkg/model"
	"tastebud/pkg/store"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func setup(t *testing.T) (*QueryCache, *clock) {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "cache_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	clk := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(store.NewSQLiteStore(d), 10*time.Minute, clk.Now), clk
}

func TestQueryCache_TTLBoundary(t *testing.T) {
	ctx := context.Background()
	c, clk := setup(t)
	payload := json.RawMessage(`{"results":[{"fsq_id":"x"}]}`)
	written := clk.t

	require.NoError(t, c.Store(ctx, "u1", "fp", payload, written))

	tests := []struct {
		name   string
		offset time.Duration
		want   Outcome
	}{
		{"immediately", 0, Hit},
		{"at 9m59s", 9*time.Minute + 59*time.Second, Hit},
		{"exactly at expiry", 10 * time.Minute, Expired},
		{"at 10m1s", 10*time.Minute + time.Second, Expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk.t = written.Add(tt.offset)
			e, got := c.Lookup(ctx, "u1", "fp")
			assert.Equal(t, tt.want, got)
			if tt.want == Hit {
				require.NotNil(t, e)
				assert.JSONEq(t, string(payload), string(e.Response))
			} else {
				assert.Nil(t, e)
			}
		})
	}
}

func TestQueryCache_MissAndIsolation(t *testing.T) {
	ctx := context.Background()
	c, clk := setup(t)

	_, got := c.Lookup(ctx, "u1", "fp")
	assert.Equal(t, Miss, got)

	require.NoError(t, c.Store(ctx, "u1", "fp", json.RawMessage(`{"a":1}`), clk.t))
	_, got = c.Lookup(ctx, "u2", "fp")
	assert.Equal(t, Miss, got, "another user's entry must not be visible")
}

func TestQueryCache_Sweep(t *testing.T) {
	ctx := context.Background()
	c, clk := setup(t)

	require.NoError(t, c.Store(ctx, "u1", "old", json.RawMessage(`{}`), clk.t.Add(-time.Hour)))
	require.NoError(t, c.Store(ctx, "u1", "new", json.RawMessage(`{}`), clk.t))

	n, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, got := c.Lookup(ctx, "u1", "new")
	assert.Equal(t, Hit, got)
}

type brokenStore struct{ store.QueryCacheStore }

func (brokenStore) GetQueryCache(context.Context, string, string) (*model.CacheEntry, error) {
	return nil, errors.New("database is locked")
}

func TestQueryCache_ReadErrorIsReported(t *testing.T) {
	c := New(brokenStore{}, time.Minute, nil)
	e, got := c.Lookup(context.Background(), "u1", "fp")
	assert.Nil(t, e)
	assert.Equal(t, Error, got)
	assert.Equal(t, "error", got.String())
}
