package controller

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/leadgen-backend/internal/auth"
	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "module", "http", "error", err)
	}
}

func statusOf(err error) int {
	switch appErrors.KindOf(err) {
	case appErrors.KindValidation:
		return http.StatusBadRequest
	case appErrors.KindUnauthorized:
		return http.StatusUnauthorized
	case appErrors.KindNotFound:
		return http.StatusNotFound
	case appErrors.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError maps err to its status and writes {"message": ...}. Internal
// errors are logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := statusOf(err)
	fields := []any{
		"module", "http",
		"operation", operation,
		"outcome", "failure",
		"status_code", status,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err.Error(),
	}
	if status >= 500 {
		slog.ErrorContext(r.Context(), "http operation failed", fields...)
	} else {
		slog.DebugContext(r.Context(), "http operation rejected", fields...)
	}
	writeJSON(w, status, map[string]string{"message": appErrors.MessageOf(err)})
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return appErrors.Validation("request body too large")
		}
		return appErrors.Validation("invalid request body")
	}
	return nil
}

func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, appErrors.Validation("invalid %s", name)
	}
	return id, nil
}

// userID returns the id of the session user. Routes using it sit behind auth.RequireSession.
func userID(r *http.Request) (string, error) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		return "", appErrors.Unauthorized("Unauthorized")
	}
	return u.ID, nil
}
