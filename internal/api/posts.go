package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"tastebud/pkg/model"
	"tastebud/pkg/store"
)

// PostHandler serves post routes.
type PostHandler struct {
	store    store.PostStore
	validate *validator.Validate
	now      func() time.Time
}

// NewPostHandler creates a PostHandler. A nil clock means time.Now.
func NewPostHandler(s store.PostStore, now func() time.Time) *PostHandler {
	if now == nil {
		now = time.Now
	}
	return &PostHandler{store: s, validate: validator.New(), now: now}
}

type createPostRequest struct {
	Images   []string        `json:"images" validate:"required,min=1"`
	Caption  *string         `json:"caption"`
	Location json.RawMessage `json:"location"`
}

// HandleCreate handles POST /api/posts
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, invalid("At least one image is required"))
		return
	}
	if req.Caption == nil || strings.TrimSpace(*req.Caption) == "" {
		writeError(w, invalid("Caption is required"))
		return
	}
	location, null, err := optionalString(req.Location)
	if err != nil || null {
		writeError(w, invalid("Location must be a string if provided"))
		return
	}
	if location != nil && *location == "" {
		location = nil
	}

	now := h.now()
	p := &model.Post{
		ID:        uuid.NewString(),
		UserID:    caller(r).ID,
		Images:    req.Images,
		Caption:   *req.Caption,
		Location:  location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreatePost(r.Context(), p); err != nil {
		writeError(w, model.Wrap(model.KindInternal, "Failed to create post", err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Post created successfully",
		"post":    p,
	})
}

// ownedPost loads post {id} and checks the caller owns it. verb names the
// action in error details.
func (h *PostHandler) ownedPost(r *http.Request, verb string) (*model.Post, error) {
	id := r.PathValue("id")
	if id == "" {
		return nil, model.Errorf(model.KindInvalidRequest, "Missing post ID", "Post ID is required")
	}

	notFound := model.Errorf(model.KindNotFound, "Post not found", "The post you are trying to "+verb+" does not exist")
	if !isUUID(id) {
		return nil, notFound
	}
	p, err := h.store.GetPost(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, model.Wrap(model.KindInternal, "Internal server error", err)
	}
	if p.UserID != caller(r).ID {
		return nil, model.Errorf(model.KindForbidden, "Forbidden", "You can only "+verb+" your own posts")
	}
	return p, nil
}

type updatePostRequest struct {
	Images   json.RawMessage `json:"images"`
	Caption  json.RawMessage `json:"caption"`
	Location json.RawMessage `json:"location"`
}

// HandleUpdate handles PATCH /api/posts/{id}
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, err := h.ownedPost(r, "update")
	if err != nil {
		writeError(w, err)
		return
	}

	var req updatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, err := parsePostUpdate(req)
	if err != nil {
		writeError(w, err)
		return
	}
	if u.Empty() {
		writeError(w, model.Errorf(model.KindInvalidRequest, "No update data", "No valid fields to update were provided"))
		return
	}
	u.UpdatedAt = h.now()

	updated, err := h.store.UpdatePost(r.Context(), p.ID, u)
	if err != nil {
		writeError(w, model.Wrap(model.KindInternal, "Failed to update post", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Post updated successfully",
		"post":    updated,
	})
}

func parsePostUpdate(req updatePostRequest) (model.PostUpdate, error) {
	var u model.PostUpdate

	if present(req.Images) {
		if err := json.Unmarshal(req.Images, &u.Images); err != nil || len(u.Images) == 0 {
			return u, invalid("If provided, images must be a non-empty array")
		}
	}

	if present(req.Caption) {
		caption, null, err := optionalString(req.Caption)
		if err != nil || null || strings.TrimSpace(*caption) == "" {
			return u, invalid("If provided, caption must be a non-empty string")
		}
		u.Caption = caption
	}

	if present(req.Location) {
		location, null, err := optionalString(req.Location)
		if err != nil {
			return u, invalid("Location must be a string or null if provided")
		}
		u.Location = location
		u.ClearLocation = null
	}
	return u, nil
}

// HandleDelete handles DELETE /api/posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, err := h.ownedPost(r, "delete")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.DeletePost(r.Context(), p.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, model.Wrap(model.KindInternal, "Failed to delete post", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Post deleted successfully",
		"id":      p.ID,
	})
}

// HandleList handles GET /api/users/{id}/posts
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	me := caller(r).ID
	page := pageFrom(r)

	posts, total, err := h.store.ListPostsByUser(r.Context(), targetUser(r), page)
	if err != nil {
		writeError(w, model.Wrap(model.KindInternal, "Failed to fetch posts", err))
		return
	}
	for i := range posts {
		if posts[i].User != nil && posts[i].UserID != me {
			posts[i].User.Email = model.MaskEmail(posts[i].User.Email)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":      posts,
		"pagination": newPagination(total, page),
	})
}

// present reports whether a field appeared in the body, null included.
func present(raw json.RawMessage) bool {
	return len(raw) > 0
}

// optionalString decodes a JSON string or null. null reports an explicit null.
func optionalString(raw json.RawMessage) (val *string, null bool, err error) {
	if !present(raw) {
		return nil, false, nil
	}
	if string(raw) == "null" {
		return nil, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, err
	}
	return &s, false, nil
}
