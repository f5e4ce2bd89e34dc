package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pavel-fokin/media-catalog/internal/catalog"
)

var (
	errInvalidID   = catalog.Validation("invalid id")
	errInvalidBody = catalog.Validation("invalid request body")
)

type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps an error to a status code. Classified errors carry their
// reason to the client; anything else is reported as an internal error.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, catalog.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound):
		status = http.StatusNotFound
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var ce *catalog.Error
	if errors.As(err, &ce) {
		http.Error(w, ce.Error(), status)
		return
	}
	http.Error(w, http.StatusText(status), status)
}

// clientError reports whether err is a validation or not-found error
func clientError(err error) bool {
	return errors.Is(err, catalog.ErrValidation) || errors.Is(err, catalog.ErrNotFound)
}

// pathID parses a positive integer path parameter
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// decodeJSON reads a JSON request body into v
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}
