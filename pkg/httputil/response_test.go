package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"anonymous", profile.RequireAdmin(nil), http.StatusUnauthorized},
		{"not admin", profile.RequireAdmin(&profile.Profile{}), http.StatusForbidden},
		{"not found", storage.NotFound("webhook", "x"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", storage.NotFound("role", 1)), http.StatusNotFound},
		{"conflict", storage.ErrConflict, http.StatusConflict},
		{"invalid", storage.InvalidInput("bad url"), http.StatusBadRequest},
		{"other", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestWriteDomainError_AuthErrorCarriesKind(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteDomainError(w, r, profile.RequireAdmin(&profile.Profile{}))

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, string(profile.KindInsufficientPrivileges), body.Code)
}

func TestWriteDomainError_HidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(observability.WithLogger(r.Context(), observability.NewNopLogger()))

	WriteDomainError(w, r, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteCreated(w, map[string]string{"id": "1"}))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"1"}`, w.Body.String())
}

type unencodable struct{}

func (unencodable) MarshalJSON() ([]byte, error) {
	return nil, errors.New("cannot encode")
}

func TestWriteJSON_EncodeFailureBecomes500(t *testing.T) {
	w := httptest.NewRecorder()
	err := WriteJSON(w, http.StatusConflict, unencodable{})
	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Error)
}
