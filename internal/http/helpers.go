package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20 // 1MB

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

// writeError maps the core error taxonomy onto HTTP statuses. Storage and
// unclassified failures surface as 500 with a generic body; the detail
// stays in the request log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, core.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrPermissionDenied):
		status = http.StatusForbidden
	default:
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// readJSON decodes a request body into a narrowly-typed request struct,
// rejecting unknown fields so typos fail loudly at the boundary.
func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w: %v", core.ErrInvalidArgument, err)
	}
	return nil
}

// requestUserID reads the authenticated user from the X-User-ID header.
// Session handling lives in front of this service; here the header is
// trusted as-is.
func requestUserID(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return 0, fmt.Errorf("missing X-User-ID header: %w", core.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("malformed X-User-ID header: %w", core.ErrInvalidArgument)
	}
	return id, nil
}

// pathID parses the {id} segment of the matched route.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("malformed id %q: %w", raw, core.ErrInvalidArgument)
	}
	return id, nil
}

// queryCategoryID parses an optional idCategory query parameter.
func queryCategoryID(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("idCategory")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return nil, fmt.Errorf("malformed idCategory %q: %w", raw, core.ErrInvalidArgument)
	}
	return &id, nil
}
