package webhooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

func newTestRouter(t *testing.T, caller *profile.Profile) (*mux.Router, *PropagationLog) {
	t.Helper()
	svc, _, _ := newTestService(t)
	log := NewPropagationLog(10)
	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(profile.WithProfile(r.Context(), caller)))
		})
	})
	NewHandlers(svc, log).RegisterRoutes(router)
	return router, log
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r.WithContext(context.Background()))
	return w
}

func TestHandlers_Lifecycle(t *testing.T) {
	router, log := newTestRouter(t, manager)
	body := `{"name":"crm","url":"https://crm.test/h","trigger":"createUserAccount","secret":{"authorizationHeader":{"token":"abc"}}}`

	w := do(router, http.MethodPost, "/webhooks", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "abc")

	var created storage.CreateResponse[WebHook]
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	id := created.Record.ID.String()

	w = do(router, http.MethodPost, "/webhooks", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), ReasonAlreadyExists)
	assert.Contains(t, w.Body.String(), id)
	assert.NotContains(t, w.Body.String(), `"abc"`)

	w = do(router, http.MethodGet, "/webhooks/"+id, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), RedactedToken)

	w = do(router, http.MethodPatch, "/webhooks/"+id, `{"isActive":false}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isActive":false`)

	log.Add(PropagationRecord{HookID: created.Record.ID, Trigger: TriggerCreateUserAccount, Status: 200, Succeeded: true})
	w = do(router, http.MethodGet, "/webhooks/"+id+"/propagations?limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = do(router, http.MethodGet, "/webhooks?trigger=createUserAccount", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodDelete, "/webhooks/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodGet, "/webhooks/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlers_Errors(t *testing.T) {
	router, _ := newTestRouter(t, nobody)

	assert.Equal(t, http.StatusForbidden, do(router, http.MethodGet, "/webhooks", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/webhooks/not-a-uuid", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/webhooks", `{"bogus":true}`).Code)

	anon, _ := newTestRouter(t, nil)
	assert.Equal(t, http.StatusUnauthorized, do(anon, http.MethodGet, "/webhooks", "").Code)
}
