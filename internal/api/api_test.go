package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tastebud/internal/mocks"
	"tastebud/pkg/auth"
	"tastebud/pkg/cache"
	"tastebud/pkg/db"
	"tastebud/pkg/gateway"
	"tastebud/pkg/store"
	"tastebud/pkg/tracker"
)

const (
	aliceID    = "11111111-1111-4111-8111-111111111111"
	bobID      = "22222222-2222-4222-8222-222222222222"
	carolID    = "33333333-3333-4333-8333-333333333333"
	aliceToken = "token-alice"
	bobToken   = "token-bob"
	carolToken = "token-carol"
)

type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

// Now advances one second per call so rows get distinct timestamps.
func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type testEnv struct {
	handler  http.Handler
	store    *store.SQLiteStore
	searcher *mocks.MockSearcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)

	d, err := db.Init(filepath.Join(t.TempDir(), "api_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	s := store.NewSQLiteStore(d)

	fullName := "Alice Liddell"
	users := map[string]*auth.User{
		aliceToken: {ID: aliceID, Email: "alice@example.com", UserMetadata: auth.Metadata{FullName: &fullName}},
		bobToken:   {ID: bobID, Email: "bob@example.com"},
		carolToken: {ID: carolID, Email: "carol@example.org"},
	}
	verifier := mocks.NewMockVerifier(ctrl)
	verifier.EXPECT().Verify(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, token string) (*auth.User, error) {
			if u, ok := users[token]; ok {
				return u, nil
			}
			return nil, fmt.Errorf("%w: %s", auth.ErrUnauthorized, "invalid JWT")
		}).AnyTimes()

	searcher := mocks.NewMockSearcher(ctrl)
	clk := &tickClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	tr := tracker.New()
	gw := gateway.New(searcher, cache.New(s, 10*time.Minute, nil), s, tr, gateway.Options{RejectZeroCoordinates: true})

	h := Handlers{
		Auth:        NewAuthenticator(verifier),
		Restaurants: NewRestaurantHandler(gw),
		Posts:       NewPostHandler(s, clk.Now),
		Social:      NewSocialHandler(s, clk.Now),
		Profiles:    NewProfileHandler(s, clk.Now),
		Stats:       NewStatsHandler(tr),
	}
	return &testEnv{handler: loggingMiddleware(Routes(h)), store: s, searcher: searcher}
}

// do sends a request and decodes a JSON object response when there is one.
func (e *testEnv) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	}
	return rec, out
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"missing header", "", http.StatusUnauthorized, `{"error":"Unauthorized: No authorization header"}`},
		{"rejected token", "Bearer nope", http.StatusUnauthorized, `{"error":"Unauthorized","details":"invalid JWT"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/restaurants/search", strings.NewReader(`{}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestPublicRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/version", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["version"])

	rec, _ = env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec, _ = env.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tastebud_http_requests_total")
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	rec, _ := env.do(t, http.MethodGet, "/api/restaurants/search", aliceToken, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.do(t, http.MethodGet, "/api/stats", aliceToken, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "runtime")
	assert.Contains(t, body, "providers")
}
