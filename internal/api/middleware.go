package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"tastebud/pkg/auth"
	"tastebud/pkg/logging"
	"tastebud/pkg/metrics"
)

// Authenticator resolves the caller of a request before the handler runs.
type Authenticator struct {
	verifier auth.Verifier
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(v auth.Verifier) *Authenticator {
	return &Authenticator{verifier: v}
}

// Require rejects requests without a valid bearer token and puts the
// verified user in the request context.
func (a *Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized: No authorization header"})
			return
		}

		user, err := a.verifier.Verify(r.Context(), auth.BearerToken(header))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized", Details: unauthorizedDetails(err)})
			return
		}
		next(w, r.WithContext(auth.WithUser(r.Context(), user)))
	}
}

func unauthorizedDetails(err error) string {
	if errors.Is(err, auth.ErrUnauthorized) {
		if msg := strings.TrimPrefix(err.Error(), auth.ErrUnauthorized.Error()+": "); msg != auth.ErrUnauthorized.Error() {
			return msg
		}
		return "User not found"
	}
	return err.Error()
}

// caller returns the user set by Require. Handlers are only mounted behind
// Require, so the user is always present.
func caller(r *http.Request) *auth.User {
	u, _ := auth.FromContext(r.Context())
	return u
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		metrics.ObserveRequest(r.Pattern, rec.status, elapsed)
		logging.RequestLogger.Info("Request Processed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed)
	})
}
