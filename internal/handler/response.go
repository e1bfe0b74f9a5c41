package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError, so all responses
// share one shape and one Content-Type.
//
// ERROR FORMAT:
// Every error body carries a message; validation failures add a map of
// per-field messages:
//
//	{"message": "Spot couldn't be found"}
//	{"message": "Bad Request", "errors": {"city": "City is required"}}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/rental-spots/internal/apperror"
	"github.com/sakif/rental-spots/internal/auth"
	"github.com/sakif/rental-spots/internal/validation"
)

// ErrorResponse is the error body of every endpoint.
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
// Headers must be set before WriteHeader; anything set afterwards is ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends it.
//
// Services return apperror values (possibly wrapped with fmt.Errorf %w);
// errors.Is walks the chain down to the sentinel. Anything that isn't an
// *AppError is a 500, and its text never reaches the client: it may hold
// SQL or file paths.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest // 400
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized // 401
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden // 403
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound // 404
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict // 409
		}

		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{
				Message: appErr.Message,
				Errors:  appErr.Fields,
			})
			return
		}
	}

	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Message: "An internal error occurred",
	})
}

// pathID reads a numeric URL parameter. A malformed id can't match any row,
// so it is reported the same way as a missing one.
func pathID(r *http.Request, param, resource string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.NotFound(resource)
	}
	return id, nil
}

// callerID returns the signed-in user. Routes behind auth.RequireAuth
// always have one.
func callerID(r *http.Request) (int64, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return 0, apperror.Unauthorized("Authentication required")
	}
	return id, nil
}

// decode reads the JSON request body into dst; see validation.DecodeJSON.
func decode(r *http.Request, dst interface{}, msgs validation.Messages) error {
	return validation.DecodeJSON(r.Body, dst, msgs)
}
