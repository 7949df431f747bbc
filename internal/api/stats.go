package api

import (
	"net/http"
	"runtime"
	"time"

	"tastebud/pkg/tracker"
)

type StatsHandler struct {
	tracker *tracker.Tracker
	started time.Time
}

func NewStatsHandler(t *tracker.Tracker) *StatsHandler {
	return &StatsHandler{tracker: t, started: time.Now()}
}

type ProviderStatsDTO struct {
	CacheHits     int64 `json:"cache_hits"`
	CacheMisses   int64 `json:"cache_misses"`
	CacheExpired  int64 `json:"cache_expired"`
	CacheErrors   int64 `json:"cache_errors"`
	APISuccess    int64 `json:"api_success"`
	APIZeroResult int64 `json:"api_zero"`
	APIFailures   int64 `json:"api_errors"`
	HitRate       int64 `json:"hit_rate"`
}

type RuntimeStats struct {
	UptimeSec  int64  `json:"uptime_sec"`
	Goroutines int    `json:"goroutines"`
	MemoryMB   uint64 `json:"memory_mb"`
}

type StatsResponse struct {
	Runtime   RuntimeStats                `json:"runtime"`
	Providers map[string]ProviderStatsDTO `json:"providers"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := StatsResponse{
		Runtime: RuntimeStats{
			UptimeSec:  int64(time.Since(h.started).Seconds()),
			Goroutines: runtime.NumGoroutine(),
			MemoryMB:   bToMb(mem.Alloc),
		},
		Providers: make(map[string]ProviderStatsDTO, len(snapshot)),
	}

	for provider, stats := range snapshot {
		// Expired and failed reads count as misses.
		totalCache := stats.CacheHits + stats.CacheMisses + stats.CacheExpired + stats.CacheErrors
		hitRate := int64(0)
		if totalCache > 0 {
			hitRate = (stats.CacheHits * 100) / totalCache
		}
		resp.Providers[provider] = ProviderStatsDTO{
			CacheHits:     stats.CacheHits,
			CacheMisses:   stats.CacheMisses,
			CacheExpired:  stats.CacheExpired,
			CacheErrors:   stats.CacheErrors,
			APISuccess:    stats.APISuccess,
			APIZeroResult: stats.APIZeroResult,
			APIFailures:   stats.APIFailures,
			HitRate:       hitRate,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
