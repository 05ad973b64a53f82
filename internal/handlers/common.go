package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	svcErr "github.com/oggyb/elite-matchmaking/internal/errors"
	"github.com/oggyb/elite-matchmaking/internal/logger"
	"github.com/oggyb/elite-matchmaking/internal/validation"
)

const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// respondError renders a service error with the matching HTTP status.
// Validation failures also carry their per-field messages.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, msg := svcErr.HTTPStatus(err)
	resp := ErrorResponse{Error: msg}

	var verr *validation.Error
	if errors.As(err, &verr) {
		resp.Error = "validation failed"
		resp.Fields = verr.Fields
	}
	if statusCode >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), nil).Error("request failed", "err", err)
	}
	respondJSON(w, statusCode, resp)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return svcErr.InvalidArgument("invalid JSON body")
}
