package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tastebud/pkg/tracker"
)

func TestTrackerCollector(t *testing.T) {
	tr := tracker.New()
	tr.TrackCacheHit(tracker.ProviderPlaces)
	tr.TrackCacheHit(tracker.ProviderPlaces)
	tr.TrackCacheExpired(tracker.ProviderPlaces)
	tr.TrackAPIFailure(tracker.ProviderPlaces)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewTrackerCollector(tr)))

	expected := `
# HELP tastebud_cache_lookups_total Cache lookups by provider and outcome.
# TYPE tastebud_cache_lookups_total counter
tastebud_cache_lookups_total{outcome="error",provider="places"} 0
tastebud_cache_lookups_total{outcome="expired",provider="places"} 1
tastebud_cache_lookups_total{outcome="hit",provider="places"} 2
tastebud_cache_lookups_total{outcome="miss",provider="places"} 0
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "tastebud_cache_lookups_total")
	assert.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "tastebud_upstream_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET /health", "200"))
	ObserveRequest("GET /health", 200, 5*time.Millisecond)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET /health", "200"))
	assert.Equal(t, before+1, after)

	ObserveRequest("", 404, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "404")))
}

func TestAddSweepDeleted(t *testing.T) {
	before := testutil.ToFloat64(SweepDeleted)
	AddSweepDeleted(0)
	AddSweepDeleted(3)
	assert.Equal(t, before+3, testutil.ToFloat64(SweepDeleted))
}
