// Package gateway resolves restaurant searches through a per-user TTL cache
// in front of the places API and annotates results with the caller's
// preferences.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
	"golang.org/x/sync/singleflight"

	"tastebud/pkg/cache"
	"tastebud/pkg/model"
	"tastebud/pkg/places"
	"tastebud/pkg/store"
	"tastebud/pkg/tracker"
)

// Result sources.
const (
	SourceCache    = "cache"
	SourceUpstream = "upstream"
)

//go:generate mockgen -destination=../../internal/mocks/searcher.go -package=mocks tastebud/pkg/gateway Searcher

// Searcher is the upstream places API.
type Searcher interface {
	Configured() bool
	Search(ctx context.Context, q model.Query) (json.RawMessage, error)
}

// Options tune gateway behavior.
type Options struct {
	// RejectZeroCoordinates treats a latitude or longitude of exactly 0 as missing.
	RejectZeroCoordinates bool
	// Coalesce shares one upstream call among concurrent identical misses
	// of the same user.
	Coalesce bool
}

// Result is a resolved search.
type Result struct {
	Results     json.RawMessage                  `json:"results"`
	Source      string                           `json:"source"`
	Preferences map[string]model.PreferenceValue `json:"userPreferences"`
}

// Gateway is safe for concurrent use.
type Gateway struct {
	searcher Searcher
	cache    *cache.QueryCache
	prefs    store.PreferenceStore
	tracker  *tracker.Tracker
	validate *validator.Validate
	opts     Options
	group    singleflight.Group
}

// New creates a Gateway.
func New(s Searcher, c *cache.QueryCache, prefs store.PreferenceStore, tr *tracker.Tracker, opts Options) *Gateway {
	if tr == nil {
		tr = tracker.New()
	}
	return &Gateway{
		searcher: s,
		cache:    c,
		prefs:    prefs,
		tracker:  tr,
		validate: newValidator(),
		opts:     opts,
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

var world = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// Normalize validates req and fills defaults.
func (g *Gateway) Normalize(req model.SearchRequest) (model.Query, error) {
	if err := g.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Tag() == "required" {
					return model.Query{}, model.Errorf(model.KindInvalidRequest, "Latitude and longitude are required", "")
				}
			}
			return model.Query{}, model.Errorf(model.KindInvalidRequest, "Invalid search parameters", verrs[0].Field()+" must be positive")
		}
		return model.Query{}, model.Wrap(model.KindInvalidRequest, "Invalid search parameters", err)
	}

	q := model.Query{
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		Radius:     model.DefaultRadius,
		Categories: model.DefaultCategories,
		Sort:       model.DefaultSort,
		Limit:      model.DefaultLimit,
	}
	if g.opts.RejectZeroCoordinates && (q.Latitude == 0 || q.Longitude == 0) {
		return model.Query{}, model.Errorf(model.KindInvalidRequest, "Latitude and longitude are required", "")
	}
	if math.IsNaN(q.Latitude) || math.IsNaN(q.Longitude) || !world.Contains(q.Point()) {
		return model.Query{}, model.Errorf(model.KindInvalidRequest, "Invalid coordinates",
			"latitude must be within [-90, 90] and longitude within [-180, 180]")
	}

	if req.Radius != nil {
		q.Radius = *req.Radius
	}
	if req.Categories != nil && *req.Categories != "" {
		q.Categories = *req.Categories
	}
	if req.Sort != nil && *req.Sort != "" {
		q.Sort = *req.Sort
	}
	if req.Limit != nil {
		q.Limit = *req.Limit
	}
	return q, nil
}

// Resolve serves a search for userID from cache or upstream.
func (g *Gateway) Resolve(ctx context.Context, userID string, req model.SearchRequest) (*Result, error) {
	q, err := g.Normalize(req)
	if err != nil {
		return nil, err
	}
	fp := Fingerprint(q)

	entry, outcome := g.cache.Lookup(ctx, userID, fp)
	switch outcome {
	case cache.Hit:
		g.tracker.TrackCacheHit(tracker.ProviderPlaces)
		slog.Debug("Query cache hit", "user", userID, "fingerprint", fp)
		return &Result{
			Results:     entry.Response,
			Source:      SourceCache,
			Preferences: g.Annotate(ctx, userID),
		}, nil
	case cache.Expired:
		g.tracker.TrackCacheExpired(tracker.ProviderPlaces)
	case cache.Error:
		g.tracker.TrackCacheError(tracker.ProviderPlaces)
	default:
		g.tracker.TrackCacheMiss(tracker.ProviderPlaces)
	}

	var payload json.RawMessage
	if g.opts.Coalesce {
		// The shared call outlives any single caller; the request client
		// timeout still bounds it.
		shared := context.WithoutCancel(ctx)
		v, err, joined := g.group.Do(userID+":"+fp, func() (any, error) {
			return g.fetch(shared, userID, fp, q)
		})
		if err != nil {
			return nil, err
		}
		if joined {
			slog.Debug("Coalesced upstream search", "user", userID, "fingerprint", fp)
		}
		payload = v.(json.RawMessage)
	} else {
		payload, err = g.fetch(ctx, userID, fp, q)
		if err != nil {
			return nil, err
		}
	}

	return &Result{
		Results:     payload,
		Source:      SourceUpstream,
		Preferences: g.Annotate(ctx, userID),
	}, nil
}

// fetch calls upstream once and writes the cache. Cache write failures
// are logged, not returned.
func (g *Gateway) fetch(ctx context.Context, userID, fp string, q model.Query) (json.RawMessage, error) {
	if !g.searcher.Configured() {
		return nil, model.Errorf(model.KindUpstreamNotConfigured, "Foursquare API key not configured", "")
	}

	payload, err := g.searcher.Search(ctx, q)
	if err != nil {
		return nil, translate(err)
	}
	now := g.cache.Now()

	if places.CountResults(payload) == 0 {
		g.tracker.TrackAPIZero(tracker.ProviderPlaces)
	}

	if err := g.cache.Store(ctx, userID, fp, payload, now); err != nil {
		g.tracker.TrackCacheError(tracker.ProviderPlaces)
		slog.Error("Error updating cache", "user", userID, "fingerprint", fp, "error", err)
	}
	return payload, nil
}

func translate(err error) error {
	var ue *places.UpstreamError
	switch {
	case errors.As(err, &ue):
		return &model.Error{
			Kind:    model.KindUpstreamError,
			Message: "Failed to fetch from Foursquare API",
			Details: ue.Body,
			Err:     ue,
		}
	case errors.Is(err, places.ErrNotConfigured):
		return model.Errorf(model.KindUpstreamNotConfigured, "Foursquare API key not configured", "")
	default:
		return model.Wrap(model.KindInternal, "Internal server error", err)
	}
}

// Annotate returns the caller's verdicts keyed by restaurant id. A read
// failure yields an empty map.
func (g *Gateway) Annotate(ctx context.Context, userID string) map[string]model.PreferenceValue {
	out := map[string]model.PreferenceValue{}
	prefs, err := g.prefs.ListPreferences(ctx, userID)
	if err != nil {
		slog.Warn("Preference read failed, returning results unannotated", "user", userID, "error", err)
		return out
	}
	for _, p := range prefs {
		out[p.RestaurantID] = p.Value
	}
	return out
}

// SetPreference records userID's verdict on restaurantID. Repeating the
// same call is a no-op.
func (g *Gateway) SetPreference(ctx context.Context, userID, restaurantID string, value model.PreferenceValue) error {
	if restaurantID == "" || value == "" {
		return model.Errorf(model.KindInvalidRequest, "Restaurant ID and preference are required", "")
	}
	if !value.Valid() {
		return model.Errorf(model.KindInvalidRequest, "Preference must be 'like' or 'dislike'", "")
	}
	err := g.prefs.UpsertPreference(ctx, &model.Preference{
		UserID:       userID,
		RestaurantID: restaurantID,
		Value:        value,
		UpdatedAt:    g.cache.Now(),
	})
	if err != nil {
		return model.Wrap(model.KindInternal, "Failed to save preference", err)
	}
	return nil
}

// PreferenceCounts aggregates verdicts on restaurantID across all users,
// plus the caller's own verdict if any.
func (g *Gateway) PreferenceCounts(ctx context.Context, restaurantID, userID string) (*model.PreferenceCounts, error) {
	if restaurantID == "" {
		return nil, model.Errorf(model.KindInvalidRequest, "Restaurant ID is required", "")
	}

	likes, err := g.prefs.CountPreferences(ctx, restaurantID, model.Like)
	if err != nil {
		return nil, model.Wrap(model.KindInternal, "Failed to get likes count", err)
	}
	dislikes, err := g.prefs.CountPreferences(ctx, restaurantID, model.Dislike)
	if err != nil {
		return nil, model.Wrap(model.KindInternal, "Failed to get dislikes count", err)
	}

	counts := &model.PreferenceCounts{Likes: likes, Dislikes: dislikes}
	p, err := g.prefs.GetPreference(ctx, userID, restaurantID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, model.Wrap(model.KindInternal, "Failed to get user preference", err)
	default:
		v := p.Value
		counts.UserPreference = &v
	}
	return counts, nil
}
