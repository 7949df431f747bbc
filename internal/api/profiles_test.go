package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tastebud/pkg/model"
)

func TestGetProfile_CreatesOwnOnFirstAccess(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/users/me/profile", aliceToken, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	authUser := body["auth_user"].(map[string]any)
	assert.Equal(t, aliceID, authUser["id"])
	profile := body["profile"].(map[string]any)
	assert.Equal(t, "alice@example.com", profile["email"])
	assert.Equal(t, "Alice Liddell", profile["full_name"])
	assert.Equal(t, "", profile["bio"])

	stored, err := env.store.GetProfile(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", stored.Email)

	// Own UUID behaves like "me".
	rec, body = env.do(t, http.MethodGet, "/api/users/"+aliceID+"/profile", aliceToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "auth_user")
}

func TestGetProfile_Other(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.CreateProfile(context.Background(), &model.Profile{ID: bobID, Email: "bob@example.com"}))

	rec, body := env.do(t, http.MethodGet, "/api/users/"+bobID+"/profile", aliceToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, body, "auth_user")
	assert.Equal(t, "b****@example.com", body["profile"].(map[string]any)["email"])

	rec, body = env.do(t, http.MethodGet, "/api/users/"+carolID+"/profile", aliceToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Profile not found", body["error"])
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	rec, _ := env.do(t, http.MethodGet, "/api/users/me/profile", aliceToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	testCases := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"empty object", `{}`, http.StatusBadRequest, "No valid fields to update"},
		{"null body", `null`, http.StatusBadRequest, "No valid fields to update"},
		{"bio too long", `{"bio":"` + strings.Repeat("x", 100) + `"}`, http.StatusBadRequest, "Bio must be less than 100 characters"},
		{"malformed", `{"bio":`, http.StatusBadRequest, "Request body must be valid JSON"},
		{"wrong type", `{"bio":7}`, http.StatusBadRequest, "Request body must be valid JSON"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := env.do(t, http.MethodPut, "/api/profile", aliceToken, tc.body)
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantErr, body["details"])
		})
	}

	t.Run("valid", func(t *testing.T) {
		bio := strings.Repeat("y", 99)
		rec, body := env.do(t, http.MethodPut, "/api/profile", aliceToken, `{"bio":"`+bio+`","avatar_url":"https://cdn.example.com/a.png"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Profile updated successfully", body["message"])
		profile := body["profile"].(map[string]any)
		assert.Equal(t, bio, profile["bio"])
		assert.Equal(t, "https://cdn.example.com/a.png", profile["avatar_url"])
		assert.Equal(t, "Alice Liddell", profile["full_name"])
	})

	t.Run("without profile", func(t *testing.T) {
		rec, body := env.do(t, http.MethodPut, "/api/profile", bobToken, `{"full_name":"Bob"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Profile not found", body["error"])
	})
}
