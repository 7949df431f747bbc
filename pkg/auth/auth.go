// Package auth verifies bearer tokens against a Supabase-compatible
// /auth/v1/user endpoint and carries the caller through context.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"tastebud/pkg/request"
	"tastebud/pkg/tracker"
)

// ErrUnauthorized is returned for any token the provider does not accept.
var ErrUnauthorized = errors.New("unauthorized")

// User is the identity returned by the provider.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	UserMetadata Metadata   `json:"user_metadata"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Metadata holds the profile hints the provider keeps for a user.
type Metadata struct {
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

//go:generate mockgen -destination=../../internal/mocks/verifier.go -package=mocks tastebud/pkg/auth Verifier

// Verifier resolves a bearer token to a user.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the user stored by WithUser.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok && u != nil
}

// BearerToken extracts the credential from an Authorization header value.
// The scheme word is not checked; everything after the first space is the token.
func BearerToken(header string) string {
	_, token, _ := strings.Cut(strings.TrimSpace(header), " ")
	return strings.TrimSpace(token)
}

const cacheSize = 4096

// SupabaseVerifier calls GET {url}/auth/v1/user with the caller's token.
type SupabaseVerifier struct {
	baseURL string
	anonKey string
	http    *request.Client
	cache   *expirable.LRU[string, *User]
}

// NewSupabaseVerifier creates a verifier. A positive cacheTTL keeps
// verified tokens in memory for that long.
func NewSupabaseVerifier(baseURL, anonKey string, rc *request.Client, cacheTTL time.Duration) *SupabaseVerifier {
	v := &SupabaseVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    rc,
	}
	if cacheTTL > 0 {
		v.cache = expirable.NewLRU[string, *User](cacheSize, nil, cacheTTL)
	}
	return v
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	}

	key := tokenKey(token)
	if v.cache != nil {
		if u, ok := v.cache.Get(key); ok {
			v.http.Tracker().TrackCacheHit(tracker.ProviderAuth)
			return u, nil
		}
		v.http.Tracker().TrackCacheMiss(tracker.ProviderAuth)
	}

	resp, err := v.http.Get(ctx, tracker.ProviderAuth, v.baseURL+"/auth/v1/user", map[string]string{
		"Authorization": "Bearer " + token,
		"apikey":        v.anonKey,
		"Accept":        "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("auth request: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, errorMessage(resp.Body))
	}

	var u User
	if err := json.Unmarshal(resp.Body, &u); err != nil {
		slog.Warn("Auth provider returned unreadable user", "error", err)
		return nil, fmt.Errorf("%w: User not found", ErrUnauthorized)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("%w: User not found", ErrUnauthorized)
	}

	if v.cache != nil {
		v.cache.Add(key, &u)
	}
	return &u, nil
}

// tokenKey keeps raw tokens out of the cache.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// errorMessage pulls a human message out of a provider error body.
func errorMessage(body []byte) string {
	var e struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
			if s != "" {
				return s
			}
		}
	}
	return "User not found"
}
