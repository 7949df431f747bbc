// Package api implements the HTTP surface of the service.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tastebud/pkg/metrics"
	"tastebud/pkg/version"
)

// Handlers groups the route handlers mounted by NewServer.
type Handlers struct {
	Auth        *Authenticator
	Restaurants *RestaurantHandler
	Posts       *PostHandler
	Social      *SocialHandler
	Profiles    *ProfileHandler
	Stats       *StatsHandler
}

// NewServer creates and configures the HTTP server.
func NewServer(addr string, h Handlers) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(Routes(h)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Routes builds the request multiplexer.
func Routes(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()
	authed := h.Auth.Require

	// 1. Unauthenticated
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.Handle("GET /metrics", metrics.Handler())

	// 2. Restaurants
	mux.HandleFunc("POST /api/restaurants/search", authed(h.Restaurants.HandleSearch))
	mux.HandleFunc("POST /api/restaurants/preferences", authed(h.Restaurants.HandleSetPreference))
	mux.HandleFunc("GET /api/restaurants/{id}/preferences", authed(h.Restaurants.HandleGetPreferences))

	// 3. Posts
	mux.HandleFunc("POST /api/posts", authed(h.Posts.HandleCreate))
	mux.HandleFunc("PATCH /api/posts/{id}", authed(h.Posts.HandleUpdate))
	mux.HandleFunc("DELETE /api/posts/{id}", authed(h.Posts.HandleDelete))
	mux.HandleFunc("GET /api/users/{id}/posts", authed(h.Posts.HandleList))

	// 4. Follower graph
	mux.HandleFunc("POST /api/follow", authed(h.Social.HandleFollow))
	mux.HandleFunc("POST /api/unfollow", authed(h.Social.HandleUnfollow))
	mux.HandleFunc("GET /api/users/{id}/followers", authed(h.Social.HandleFollowers))
	mux.HandleFunc("GET /api/users/{id}/following", authed(h.Social.HandleFollowing))

	// 5. Profiles
	mux.HandleFunc("GET /api/users/{id}/profile", authed(h.Profiles.HandleGet))
	mux.HandleFunc("PUT /api/profile", authed(h.Profiles.HandleUpdate))

	// 6. Stats
	mux.Handle("GET /api/stats", authed(h.Stats.ServeHTTP))

	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
