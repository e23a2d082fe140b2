package tenants

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/platinummonkey/tenancy/pkg/httputil"
	"github.com/platinummonkey/tenancy/pkg/profile"
)

// Handlers exposes the tenant use cases over HTTP
type Handlers struct {
	service *Service
}

// NewHandlers creates tenant handlers
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers tenant routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/tenants", h.list).Methods(http.MethodGet)
	router.HandleFunc("/tenants/{tenant}", h.update).Methods(http.MethodPatch)
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := httputil.ParsePathUUIDOrError(w, r, "tenant")
	if !ok {
		return
	}
	var req updateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	tenant, err := h.service.UpdateNameAndDescription(r.Context(), profile.FromContext(r.Context()), tenantID, req.Name, req.Description)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, tenant)
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Name: httputil.ParseQueryString(r, "name", "")}

	var err error
	if filter.PageSize, err = httputil.ParseQueryInt(r, "pageSize", DefaultPageSize); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if filter.Skip, err = httputil.ParseQueryInt(r, "skip", 0); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if raw := httputil.ParseQueryString(r, "owner", ""); raw != "" {
		owner, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid owner id")
			return
		}
		filter.Owner = &owner
	}

	page, err := h.service.List(r.Context(), profile.FromContext(r.Context()), filter)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, page)
}
