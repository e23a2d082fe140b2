package guestroles

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tenancy/pkg/httputil"
	"github.com/platinummonkey/tenancy/pkg/permissions"
	"github.com/platinummonkey/tenancy/pkg/profile"
)

// Handlers exposes guest role management over HTTP
type Handlers struct {
	service *Service
}

// NewHandlers creates guest role handlers
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers guest role routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/guest-roles", h.create).Methods(http.MethodPost)
	router.HandleFunc("/guest-roles", h.list).Methods(http.MethodGet)
	router.HandleFunc("/guest-roles/{id}", h.delete).Methods(http.MethodDelete)
}

type createRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Permission  permissions.Level `json:"permission"`
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	res, err := h.service.Create(r.Context(), profile.FromContext(r.Context()), req.Name, req.Description, req.Permission)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	if !res.Created {
		_ = httputil.WriteSuccess(w, res)
		return
	}
	_ = httputil.WriteCreated(w, res)
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.List(r.Context(), profile.FromContext(r.Context()), httputil.ParseQueryString(r, "name", ""))
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, roles)
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), profile.FromContext(r.Context()), id); err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
