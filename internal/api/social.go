package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"tastebud/pkg/model"
	"tastebud/pkg/store"
)

// SocialHandler serves the follower graph routes.
type SocialHandler struct {
	store    store.FollowStore
	validate *validator.Validate
	now      func() time.Time
}

// NewSocialHandler creates a SocialHandler. A nil clock means time.Now.
func NewSocialHandler(s store.FollowStore, now func() time.Time) *SocialHandler {
	if now == nil {
		now = time.Now
	}
	return &SocialHandler{store: s, validate: validator.New(), now: now}
}

type followRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (h *SocialHandler) readTarget(r *http.Request, selfDetails string) (string, error) {
	var req followRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	if err := h.validate.Struct(req); err != nil {
		return "", invalid("user_id is required")
	}
	if req.UserID == caller(r).ID {
		return "", invalid(selfDetails)
	}
	return req.UserID, nil
}

// HandleFollow handles POST /api/follow
func (h *SocialHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	target, err := h.readTarget(r, "You cannot follow yourself")
	if err != nil {
		writeError(w, err)
		return
	}

	err = h.store.CreateFollow(r.Context(), &model.Follow{
		ID:          uuid.NewString(),
		FollowerID:  caller(r).ID,
		FollowingID: target,
		CreatedAt:   h.now(),
	})
	switch {
	case errors.Is(err, store.ErrConflict):
		writeError(w, model.Errorf(model.KindConflict, "Already following", "You are already following this user"))
	case err != nil:
		writeError(w, model.Wrap(model.KindInternal, "Failed to follow user", err))
	default:
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Successfully followed user"})
	}
}

// HandleUnfollow handles POST /api/unfollow
func (h *SocialHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	target, err := h.readTarget(r, "You cannot unfollow yourself")
	if err != nil {
		writeError(w, err)
		return
	}

	err = h.store.DeleteFollow(r.Context(), caller(r).ID, target)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, model.Errorf(model.KindInvalidRequest, "Not following", "You are not following this user"))
	case err != nil:
		writeError(w, model.Wrap(model.KindInternal, "Failed to unfollow user", err))
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully unfollowed user"})
	}
}

// HandleFollowers handles GET /api/users/{id}/followers
func (h *SocialHandler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	me := caller(r).ID
	page := pageFrom(r)

	rows, total, err := h.store.ListFollowers(r.Context(), targetUser(r), page)
	if err != nil {
		writeError(w, model.Wrap(model.KindInternal, "Failed to fetch followers", err))
		return
	}
	for i := range rows {
		if rows[i].User != nil && rows[i].FollowerID != me {
			rows[i].User.Email = model.MaskEmail(rows[i].User.Email)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"followers":  rows,
		"pagination": newPagination(total, page),
	})
}

// HandleFollowing handles GET /api/users/{id}/following
func (h *SocialHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	me := caller(r).ID
	page := pageFrom(r)

	rows, total, err := h.store.ListFollowing(r.Context(), targetUser(r), page)
	if err != nil {
		writeError(w, model.Wrap(model.KindInternal, "Failed to fetch following", err))
		return
	}
	for i := range rows {
		if rows[i].User != nil && rows[i].FollowingID != me {
			rows[i].User.Email = model.MaskEmail(rows[i].User.Email)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"following":  rows,
		"pagination": newPagination(total, page),
	})
}
