package tracker

import (
	"sync"
	"testing"
)

func TestTracker(t *testing.T) {
	tr := New()
	provider := "test.provider"

	stats := tr.Snapshot()
	if len(stats) != 0 {
		t.Errorf("Expected empty stats, got %d", len(stats))
	}

	tr.TrackCacheHit(provider)
	tr.TrackCacheMiss(provider)
	tr.TrackCacheExpired(provider)
	tr.TrackCacheError(provider)
	tr.TrackAPISuccess(provider)
	tr.TrackAPIFailure(provider)
	tr.TrackAPIZero(provider)

	stats = tr.Snapshot()
	pStats, ok := stats[provider]
	if !ok {
		t.Fatalf("Expected stats for provider %s", provider)
	}

	want := ProviderStats{
		CacheHits: 1, CacheMisses: 1, CacheExpired: 1, CacheErrors: 1,
		APISuccess: 1, APIFailures: 1, APIZeroResult: 1,
	}
	if pStats != want {
		t.Errorf("Snapshot = %+v, want %+v", pStats, want)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.TrackCacheHit(ProviderPlaces)
			tr.TrackAPISuccess(ProviderAuth)
		}()
	}
	wg.Wait()

	stats := tr.Snapshot()
	if stats[ProviderPlaces].CacheHits != 50 {
		t.Errorf("Expected 50 hits, got %d", stats[ProviderPlaces].CacheHits)
	}
	if stats[ProviderAuth].APISuccess != 50 {
		t.Errorf("Expected 50 auth successes, got %d", stats[ProviderAuth].APISuccess)
	}

	names := tr.Providers()
	if len(names) != 2 || names[0] != ProviderAuth || names[1] != ProviderPlaces {
		t.Errorf("Providers() = %v", names)
	}
}
