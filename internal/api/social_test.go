package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tastebud/pkg/model"
)

func TestFollowUnfollow(t *testing.T) {
	env := newTestEnv(t)

	steps := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantBody string
	}{
		{"follow", "/api/follow", `{"user_id":"` + bobID + `"}`, http.StatusCreated, `{"message":"Successfully followed user"}`},
		{"follow again", "/api/follow", `{"user_id":"` + bobID + `"}`, http.StatusConflict, `{"error":"Already following","details":"You are already following this user"}`},
		{"follow self", "/api/follow", `{"user_id":"` + aliceID + `"}`, http.StatusBadRequest, `{"error":"Invalid request","details":"You cannot follow yourself"}`},
		{"missing user", "/api/follow", `{}`, http.StatusBadRequest, `{"error":"Invalid request","details":"user_id is required"}`},
		{"unfollow self", "/api/unfollow", `{"user_id":"` + aliceID + `"}`, http.StatusBadRequest, `{"error":"Invalid request","details":"You cannot unfollow yourself"}`},
		{"unfollow", "/api/unfollow", `{"user_id":"` + bobID + `"}`, http.StatusOK, `{"message":"Successfully unfollowed user"}`},
		{"unfollow again", "/api/unfollow", `{"user_id":"` + bobID + `"}`, http.StatusBadRequest, `{"error":"Not following","details":"You are not following this user"}`},
		{"malformed", "/api/unfollow", `user_id`, http.StatusBadRequest, `{"error":"Invalid request body","details":"Request body must be valid JSON"}`},
	}

	for _, s := range steps {
		t.Run(s.name, func(t *testing.T) {
			rec, _ := env.do(t, http.MethodPost, s.path, aliceToken, s.body)
			assert.Equal(t, s.wantCode, rec.Code)
			assert.JSONEq(t, s.wantBody, rec.Body.String())
		})
	}
}

func TestFollowerLists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, p := range []model.Profile{
		{ID: aliceID, Email: "alice@example.com"},
		{ID: bobID, Email: "bob@example.com"},
		{ID: carolID, Email: "carol@example.org"},
	} {
		require.NoError(t, env.store.CreateProfile(ctx, &p))
	}

	// bob and carol follow alice
	for _, token := range []string{bobToken, carolToken} {
		rec, _ := env.do(t, http.MethodPost, "/api/follow", token, `{"user_id":"`+aliceID+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	t.Run("followers seen by bob", func(t *testing.T) {
		rec, body := env.do(t, http.MethodGet, "/api/users/"+aliceID+"/followers", bobToken, "")
		require.Equal(t, http.StatusOK, rec.Code)

		emails := map[string]string{}
		for _, row := range body["followers"].([]any) {
			f := row.(map[string]any)
			emails[f["follower_id"].(string)] = f["user"].(map[string]any)["email"].(string)
		}
		assert.Equal(t, map[string]string{
			bobID:   "bob@example.com",
			carolID: "c****@example.org",
		}, emails)
		assert.Equal(t, 2.0, body["pagination"].(map[string]any)["total"])
	})

	t.Run("following of carol seen by alice", func(t *testing.T) {
		rec, body := env.do(t, http.MethodGet, "/api/users/"+carolID+"/following", aliceToken, "")
		require.Equal(t, http.StatusOK, rec.Code)

		rows := body["following"].([]any)
		require.Len(t, rows, 1)
		f := rows[0].(map[string]any)
		assert.Equal(t, aliceID, f["following_id"])
		assert.Equal(t, "alice@example.com", f["user"].(map[string]any)["email"])
	})

	t.Run("own following via non-uuid id", func(t *testing.T) {
		rec, body := env.do(t, http.MethodGet, "/api/users/me/following", bobToken, "")
		require.Equal(t, http.StatusOK, rec.Code)

		rows := body["following"].([]any)
		require.Len(t, rows, 1)
		f := rows[0].(map[string]any)
		assert.Equal(t, "a****@example.com", f["user"].(map[string]any)["email"])
	})
}
