package store

import (
	"context"
	"errors"
	"time"

	"tastebud/pkg/model"
)

var (
	// ErrNotFound is returned when a keyed row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when an insert violates a unique key.
	ErrConflict = errors.New("store: conflict")
)

// QueryCacheStore persists upstream search responses per (user, query hash).
type QueryCacheStore interface {
	GetQueryCache(ctx context.Context, userID, queryHash string) (*model.CacheEntry, error)
	UpsertQueryCache(ctx context.Context, e *model.CacheEntry) error
	DeleteExpiredQueryCache(ctx context.Context, now time.Time) (int64, error)
}

//go:generate mockgen -destination=../../internal/mocks/preference_store.go -package=mocks tastebud/pkg/store PreferenceStore

// PreferenceStore handles like/dislike verdicts on restaurants.
type PreferenceStore interface {
	UpsertPreference(ctx context.Context, p *model.Preference) error
	GetPreference(ctx context.Context, userID, restaurantID string) (*model.Preference, error)
	ListPreferences(ctx context.Context, userID string) ([]model.Preference, error)
	CountPreferences(ctx context.Context, restaurantID string, value model.PreferenceValue) (int64, error)
}

// PostStore handles post persistence. Listed posts embed their author.
type PostStore interface {
	CreatePost(ctx context.Context, p *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	UpdatePost(ctx context.Context, id string, u model.PostUpdate) (*model.Post, error)
	DeletePost(ctx context.Context, id string) error
	ListPostsByUser(ctx context.Context, userID string, page model.Page) ([]model.Post, int64, error)
}

// FollowStore handles the follower graph.
type FollowStore interface {
	CreateFollow(ctx context.Context, f *model.Follow) error
	GetFollow(ctx context.Context, followerID, followingID string) (*model.Follow, error)
	DeleteFollow(ctx context.Context, followerID, followingID string) error
	// ListFollowers embeds the follower's profile in each row.
	ListFollowers(ctx context.Context, userID string, page model.Page) ([]model.Follow, int64, error)
	// ListFollowing embeds the followed user's profile in each row.
	ListFollowing(ctx context.Context, userID string, page model.Page) ([]model.Follow, int64, error)
}

// ProfileStore handles the users table.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	CreateProfile(ctx context.Context, p *model.Profile) error
	UpdateProfile(ctx context.Context, id string, u model.ProfileUpdate) (*model.Profile, error)
}

// Store defines the repository interface.
// It composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	QueryCacheStore
	PreferenceStore
	PostStore
	FollowStore
	ProfileStore

	Ping(ctx context.Context) error
	Close() error
}
