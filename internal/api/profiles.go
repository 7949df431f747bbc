package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"tastebud/pkg/auth"
	"tastebud/pkg/model"
	"tastebud/pkg/store"
)

// ProfileHandler serves profile routes.
type ProfileHandler struct {
	store    store.ProfileStore
	validate *validator.Validate
	now      func() time.Time
}

// NewProfileHandler creates a ProfileHandler. A nil clock means time.Now.
func NewProfileHandler(s store.ProfileStore, now func() time.Time) *ProfileHandler {
	if now == nil {
		now = time.Now
	}
	return &ProfileHandler{store: s, validate: validator.New(), now: now}
}

// HandleGet handles GET /api/users/{id}/profile
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	me := caller(r)

	if id := r.PathValue("id"); isUUID(id) && id != me.ID {
		p, err := h.store.GetProfile(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, model.Errorf(model.KindNotFound, "Profile not found", "No profile exists for this user"))
			return
		}
		if err != nil {
			writeError(w, model.Wrap(model.KindInternal, "Internal server error", err))
			return
		}
		p.Email = model.MaskEmail(p.Email)
		writeJSON(w, http.StatusOK, map[string]any{"profile": p})
		return
	}

	p, err := h.ownProfile(r, me)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"auth_user": me,
		"profile":   p,
	})
}

// ownProfile returns the caller's profile, creating it from the identity
// provider's data on first access.
func (h *ProfileHandler) ownProfile(r *http.Request, me *auth.User) (*model.Profile, error) {
	ctx := r.Context()
	p, err := h.store.GetProfile(ctx, me.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, model.Wrap(model.KindInternal, "Internal server error", err)
	}

	now := h.now()
	empty := ""
	p = &model.Profile{
		ID:        me.ID,
		Email:     me.Email,
		FullName:  me.UserMetadata.FullName,
		AvatarURL: me.UserMetadata.AvatarURL,
		Bio:       &empty,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if me.CreatedAt != nil {
		p.CreatedAt = *me.CreatedAt
	}
	if me.UpdatedAt != nil {
		p.UpdatedAt = *me.UpdatedAt
	}

	err = h.store.CreateProfile(ctx, p)
	if errors.Is(err, store.ErrConflict) {
		// A concurrent first access created it.
		return h.store.GetProfile(ctx, me.ID)
	}
	if err != nil {
		return nil, model.Wrap(model.KindInternal, "Failed to create profile", err)
	}
	return p, nil
}

type updateProfileRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio" validate:"omitempty,max=99"`
}

// HandleUpdate handles PUT /api/profile
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		writeError(w, err)
		return
	}
	if len(raw) == 0 {
		writeError(w, model.Errorf(model.KindInvalidRequest, "Invalid update data", "No valid fields to update"))
		return
	}

	var req updateProfileRequest
	if err := remarshal(raw, &req); err != nil {
		writeError(w, errInvalidBody)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, model.Errorf(model.KindInvalidRequest, "Invalid update data", "Bio must be less than 100 characters"))
		return
	}

	p, err := h.store.UpdateProfile(r.Context(), caller(r).ID, model.ProfileUpdate{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
		Bio:       req.Bio,
		UpdatedAt: h.now(),
	})
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, model.Errorf(model.KindNotFound, "Profile not found", "Open your profile once before updating it"))
		return
	}
	if err != nil {
		writeError(w, model.Wrap(model.KindInternal, "Failed to update profile", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"profile": p,
	})
}

func remarshal(in map[string]json.RawMessage, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
