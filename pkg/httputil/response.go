// Package httputil provides JSON response helpers and the mapping from
// domain errors to HTTP status codes.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// data is encoded before any header goes out; an encoding failure becomes a 500.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}` + "\n"))
		return fmt.Errorf("failed to encode response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}

// WriteSuccess writes 200 with data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes 201 with data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes 204
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteErrorMessage writes a JSON error body
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteBadRequest writes 400
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusBadRequest, message)
}

// StatusFor maps a domain error onto an HTTP status
func StatusFor(err error) int {
	var authErr *profile.AuthError
	switch {
	case errors.As(err, &authErr):
		if authErr.Unauthenticated() {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteDomainError writes err with the status from StatusFor.
// Internal errors are logged and replaced by a generic message.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := ErrorResponse{Error: err.Error()}

	var authErr *profile.AuthError
	if errors.As(err, &authErr) {
		body.Code = string(authErr.Kind)
	}
	if status == http.StatusInternalServerError {
		observability.FromContext(r.Context()).WithError(err).Error("Request failed")
		body = ErrorResponse{Error: "internal server error"}
	}
	_ = WriteJSON(w, status, body)
}
