package accounts

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/platinummonkey/tenancy/pkg/httputil"
	"github.com/platinummonkey/tenancy/pkg/profile"
)

// Handlers exposes the account use cases over HTTP
type Handlers struct {
	service *Service
}

// NewHandlers creates account handlers
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers account routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/tenants/{tenant}/accounts", h.create).Methods(http.MethodPost)
	router.HandleFunc("/tenants/{tenant}/accounts/{id}", h.rename).Methods(http.MethodPatch)
	router.HandleFunc("/tenants/{tenant}/accounts/{id}", h.delete).Methods(http.MethodDelete)
	router.HandleFunc("/tenants/{tenant}/accounts/{id}/guests", h.guest).Methods(http.MethodPost)
	router.HandleFunc("/tenants/{tenant}/accounts/{id}/guests", h.uninvite).Methods(http.MethodDelete)
	router.HandleFunc("/tenants/{tenant}/licensed-accounts", h.licensed).Methods(http.MethodGet)
	router.HandleFunc("/accounts/{id}/archival", h.archival).Methods(http.MethodPut)
}

type nameRequest struct {
	Name string `json:"name"`
}

type guestRequest struct {
	Email  string    `json:"email"`
	RoleID uuid.UUID `json:"roleId"`
}

type archivalRequest struct {
	Archived bool `json:"archived"`
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := httputil.ParsePathUUIDOrError(w, r, "tenant")
	if !ok {
		return
	}
	var req nameRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	res, err := h.service.CreateSubscriptionAccount(r.Context(), profile.FromContext(r.Context()), tenantID, req.Name)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	_ = httputil.WriteCreated(w, res)
}

func (h *Handlers) rename(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := tenantAndAccount(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	res, err := h.service.UpdateSubscriptionAccountName(r.Context(), profile.FromContext(r.Context()), tenantID, id, req.Name)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, res)
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := tenantAndAccount(w, r)
	if !ok {
		return
	}
	res, err := h.service.DeleteSubscriptionAccount(r.Context(), profile.FromContext(r.Context()), tenantID, id)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, res)
}

func (h *Handlers) guest(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := tenantAndAccount(w, r)
	if !ok {
		return
	}
	var req guestRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	res, err := h.service.GuestUser(r.Context(), profile.FromContext(r.Context()), tenantID, req.Email, req.RoleID, id)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	if !res.Payload.Created {
		_ = httputil.WriteSuccess(w, res)
		return
	}
	_ = httputil.WriteCreated(w, res)
}

func (h *Handlers) uninvite(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := tenantAndAccount(w, r)
	if !ok {
		return
	}
	var req guestRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	res, err := h.service.UninviteGuest(r.Context(), profile.FromContext(r.Context()), tenantID, req.Email, req.RoleID, id)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, res)
}

func (h *Handlers) licensed(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := httputil.ParsePathUUIDOrError(w, r, "tenant")
	if !ok {
		return
	}
	var filter profile.LicensedResourceFilter
	if roles := r.URL.Query()["role"]; len(roles) > 0 {
		filter.Roles = roles
	}
	email := httputil.ParseQueryString(r, "email", "")
	grants, err := h.service.ListLicensedAccountsOfEmail(r.Context(), profile.FromContext(r.Context()), tenantID, email, filter)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, grants)
}

func (h *Handlers) archival(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	var req archivalRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	account, err := h.service.ChangeArchivalStatus(r.Context(), profile.FromContext(r.Context()), id, req.Archived)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, account)
}

func tenantAndAccount(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	tenantID, ok := httputil.ParsePathUUIDOrError(w, r, "tenant")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, id, true
}
