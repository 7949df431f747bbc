package api

import (
	"fmt"
	"net/http"

	"tastebud/pkg/gateway"
	"tastebud/pkg/model"
)

// RestaurantHandler serves search and preference routes.
type RestaurantHandler struct {
	gw *gateway.Gateway
}

// NewRestaurantHandler creates a RestaurantHandler.
func NewRestaurantHandler(gw *gateway.Gateway) *RestaurantHandler {
	return &RestaurantHandler{gw: gw}
}

// HandleSearch handles POST /api/restaurants/search
func (h *RestaurantHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.gw.Resolve(r.Context(), caller(r).ID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type preferenceRequest struct {
	RestaurantID string                `json:"restaurantId"`
	Preference   model.PreferenceValue `json:"preference"`
}

// HandleSetPreference handles POST /api/restaurants/preferences
func (h *RestaurantHandler) HandleSetPreference(w http.ResponseWriter, r *http.Request) {
	var req preferenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.gw.SetPreference(r.Context(), caller(r).ID, req.RestaurantID, req.Preference); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Restaurant %s marked as %s", req.RestaurantID, req.Preference),
	})
}

// HandleGetPreferences handles GET /api/restaurants/{id}/preferences
func (h *RestaurantHandler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	counts, err := h.gw.PreferenceCounts(r.Context(), r.PathValue("id"), caller(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    counts,
	})
}
