package tracker

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Provider names used across the service.
const (
	ProviderPlaces = "places"
	ProviderAuth   = "auth"
)

// Tracker tracks usage statistics per provider.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*counters
}

type counters struct {
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	cacheExpired  atomic.Int64
	cacheErrors   atomic.Int64
	apiSuccess    atomic.Int64
	apiFailures   atomic.Int64
	apiZeroResult atomic.Int64
}

// ProviderStats is a point-in-time copy of one provider's counters.
type ProviderStats struct {
	CacheHits     int64 `json:"cache_hits"`
	CacheMisses   int64 `json:"cache_misses"`
	CacheExpired  int64 `json:"cache_expired"`
	CacheErrors   int64 `json:"cache_errors"`
	APISuccess    int64 `json:"api_success"`
	APIFailures   int64 `json:"api_failures"`
	APIZeroResult int64 `json:"api_zero_result"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*counters),
	}
}

func (t *Tracker) get(provider string) *counters {
	t.mu.RLock()
	c, ok := t.stats[provider]
	t.mu.RUnlock()
	if ok {
		return c
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok = t.stats[provider]; ok {
		return c
	}
	c = &counters{}
	t.stats[provider] = c
	return c
}

// TrackCacheHit increments the cache hit counter.
func (t *Tracker) TrackCacheHit(provider string) { t.get(provider).cacheHits.Add(1) }

// TrackCacheMiss counts a lookup that found no row.
func (t *Tracker) TrackCacheMiss(provider string) { t.get(provider).cacheMisses.Add(1) }

// TrackCacheExpired counts a lookup that found a row past its expiry.
func (t *Tracker) TrackCacheExpired(provider string) { t.get(provider).cacheExpired.Add(1) }

// TrackCacheError counts cache read or write failures.
func (t *Tracker) TrackCacheError(provider string) { t.get(provider).cacheErrors.Add(1) }

func (t *Tracker) TrackAPISuccess(provider string) { t.get(provider).apiSuccess.Add(1) }

func (t *Tracker) TrackAPIFailure(provider string) { t.get(provider).apiFailures.Add(1) }

func (t *Tracker) TrackAPIZero(provider string) { t.get(provider).apiZeroResult.Add(1) }

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]ProviderStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]ProviderStats, len(t.stats))
	for k, c := range t.stats {
		result[k] = ProviderStats{
			CacheHits:     c.cacheHits.Load(),
			CacheMisses:   c.cacheMisses.Load(),
			CacheExpired:  c.cacheExpired.Load(),
			CacheErrors:   c.cacheErrors.Load(),
			APISuccess:    c.apiSuccess.Load(),
			APIFailures:   c.apiFailures.Load(),
			APIZeroResult: c.apiZeroResult.Load(),
		}
	}
	return result
}

// Providers returns the tracked provider names in sorted order.
func (t *Tracker) Providers() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.stats))
	for k := range t.stats {
		names = append(names, k)
	}
	t.mu.RUnlock()
	sort.Strings(names)
	return names
}
