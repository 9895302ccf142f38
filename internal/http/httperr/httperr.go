// Package httperr maps domain errors onto HTTP responses so every
// handler reports failures the same way.
package httperr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/docledger/docledger/internal/document"
)

type response struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Status string `json:"current_status,omitempty"`
}

// Write renders err as JSON with the status code its type calls for.
// Unrecognized errors are logged and reported as a bare 500 so wrapped
// database detail never leaks to clients.
func Write(w http.ResponseWriter, err error) {
	var (
		valErr   *document.ValidationError
		authErr  *document.AuthorizationError
		transErr *document.InvalidTransitionError
	)

	switch {
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, response{Error: valErr.Error(), Field: valErr.Field})
	case errors.As(err, &authErr):
		writeJSON(w, http.StatusForbidden, response{Error: authErr.Error()})
	case errors.Is(err, document.ErrNotFound):
		writeJSON(w, http.StatusNotFound, response{Error: "not found"})
	case errors.As(err, &transErr):
		writeJSON(w, http.StatusUnprocessableEntity, response{Error: transErr.Error(), Status: string(transErr.Current)})
	case errors.Is(err, document.ErrConflict):
		writeJSON(w, http.StatusConflict, response{Error: "document was modified concurrently"})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, response{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
