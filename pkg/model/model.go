package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/paulmach/orb"
)

// Query defaults applied before fingerprinting.
const (
	DefaultRadius     = 22000
	DefaultCategories = "63be6904847c3692a84b9bb5" // Foursquare "Restaurant"
	DefaultSort       = "distance"
	DefaultLimit      = 50
)

// SearchRequest is the wire form of a restaurant search.
// Pointer fields distinguish "absent" from zero.
type SearchRequest struct {
	Latitude   *float64 `json:"latitude" validate:"required"`
	Longitude  *float64 `json:"longitude" validate:"required"`
	Radius     *int     `json:"radius,omitempty" validate:"omitempty,gt=0"`
	Categories *string  `json:"categories,omitempty"`
	Sort       *string  `json:"sort,omitempty"`
	Limit      *int     `json:"limit,omitempty" validate:"omitempty,gt=0"`
}

// Query is a fully defaulted geo search. Treat it as a value.
type Query struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Radius     int     `json:"radius"`
	Categories string  `json:"categories"`
	Sort       string  `json:"sort"`
	Limit      int     `json:"limit"`
}

// Point returns the query location in orb's (lon, lat) order.
func (q Query) Point() orb.Point {
	return orb.Point{q.Longitude, q.Latitude}
}

// CacheEntry is one cached upstream response for (UserID, QueryHash).
type CacheEntry struct {
	UserID    string          `json:"user_id"`
	QueryHash string          `json:"query_hash"`
	Response  json.RawMessage `json:"response"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// PreferenceValue is a user's verdict on a restaurant.
type PreferenceValue string

const (
	Like    PreferenceValue = "like"
	Dislike PreferenceValue = "dislike"
)

// Valid reports whether v is one of the known verdicts.
func (v PreferenceValue) Valid() bool {
	return v == Like || v == Dislike
}

// Preference is keyed by (UserID, RestaurantID).
type Preference struct {
	UserID       string          `json:"user_id"`
	RestaurantID string          `json:"restaurant_id"` // fsq_id
	Value        PreferenceValue `json:"preference"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PreferenceCounts aggregates verdicts for one restaurant.
type PreferenceCounts struct {
	Likes          int64            `json:"likes"`
	Dislikes       int64            `json:"dislikes"`
	UserPreference *PreferenceValue `json:"userPreference"`
}

// UserSummary is the public slice of a profile embedded in lists.
type UserSummary struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
}

// Profile is a row of the users table.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	Bio       *string   `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary returns the embeddable part of the profile.
func (p *Profile) Summary() UserSummary {
	return UserSummary{ID: p.ID, Email: p.Email, FullName: p.FullName, AvatarURL: p.AvatarURL, Bio: p.Bio}
}

// ProfileUpdate holds the optional fields of a profile update.
// A nil field is left untouched.
type ProfileUpdate struct {
	FullName  *string
	AvatarURL *string
	Bio       *string
	UpdatedAt time.Time
}

// Post is a row of the posts table.
type Post struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Images    []string     `json:"images"`
	Caption   string       `json:"caption"`
	Location  *string      `json:"location"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	User      *UserSummary `json:"user,omitempty"`
}

// PostUpdate holds the optional fields of a post update.
// ClearLocation distinguishes an explicit null from an absent field.
type PostUpdate struct {
	Images        []string
	Caption       *string
	Location      *string
	ClearLocation bool
	UpdatedAt     time.Time
}

// Empty reports whether the update would change nothing.
func (u PostUpdate) Empty() bool {
	return u.Images == nil && u.Caption == nil && u.Location == nil && !u.ClearLocation
}

// Follow is a row of the user_followers table.
type Follow struct {
	ID          string       `json:"id"`
	FollowerID  string       `json:"follower_id"`
	FollowingID string       `json:"following_id"`
	CreatedAt   time.Time    `json:"created_at"`
	User        *UserSummary `json:"user,omitempty"`
}

// Page is the offset window of a paginated list.
type Page struct {
	Number int
	Limit  int
}

// Offset returns the zero-based row offset of the page. It is never
// negative.
func (p Page) Offset() int {
	if p.Number < 1 || p.Limit < 1 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Limit
}
