package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"vigil-backend/internal/profiles"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode json response", "err", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps service errors onto status codes, unknown errors are logged and hidden from the
// client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *profiles.ValidationError
	switch {
	case errors.As(err, &validationErr):
		fields := map[string][]string{}
		for _, f := range validationErr.Fields {
			fields[f.Field] = append(fields[f.Field], f.Message)
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation failed",
			Fields: fields,
		})
	case errors.Is(err, profiles.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "not found")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
