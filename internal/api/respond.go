package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tastebud/pkg/model"
	"tastebud/pkg/places"
)

// errorResponse is the error envelope of every route.
type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"statusText,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// writeError maps err to a status code and envelope. Errors that are not
// a *model.Error become a generic 500.
func writeError(w http.ResponseWriter, err error) {
	var e *model.Error
	if !errors.As(err, &e) {
		slog.Error("Unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Details: err.Error()})
		return
	}

	body := errorResponse{Error: e.Message, Details: e.Details}
	status := statusFor(e.Kind)

	var ue *places.UpstreamError
	if e.Kind == model.KindUpstreamError && errors.As(err, &ue) {
		body.Status = ue.Status
		body.StatusText = ue.StatusText
		if ue.Status >= 400 && ue.Status <= 599 {
			status = ue.Status
		}
	}
	if status >= 500 {
		slog.Error("Request failed", "kind", e.Kind, "error", err)
	}
	writeJSON(w, status, body)
}

func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindUnauthorized:
		return http.StatusUnauthorized
	case model.KindInvalidRequest:
		return http.StatusBadRequest
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	case model.KindUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var errInvalidBody = model.Errorf(model.KindInvalidRequest, "Invalid request body", "Request body must be valid JSON")

// decodeJSON reads the request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

func invalid(details string) *model.Error {
	return model.Errorf(model.KindInvalidRequest, "Invalid request", details)
}
