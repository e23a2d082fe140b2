package webhooks

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tenancy/pkg/httputil"
	"github.com/platinummonkey/tenancy/pkg/profile"
)

// Handlers exposes webhook administration over HTTP
type Handlers struct {
	service *Service
	log     *PropagationLog
}

// NewHandlers creates handlers; log may be nil
func NewHandlers(service *Service, log *PropagationLog) *Handlers {
	return &Handlers{service: service, log: log}
}

// RegisterRoutes registers webhook routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/webhooks", h.register).Methods(http.MethodPost)
	router.HandleFunc("/webhooks", h.list).Methods(http.MethodGet)
	router.HandleFunc("/webhooks/{id}", h.get).Methods(http.MethodGet)
	router.HandleFunc("/webhooks/{id}", h.update).Methods(http.MethodPatch)
	router.HandleFunc("/webhooks/{id}", h.delete).Methods(http.MethodDelete)
	router.HandleFunc("/webhooks/{id}/propagations", h.propagations).Methods(http.MethodGet)
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	res, err := h.service.Register(r.Context(), profile.FromContext(r.Context()), in)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	if !res.Created {
		_ = httputil.WriteJSON(w, http.StatusConflict, res)
		return
	}
	_ = httputil.WriteCreated(w, res)
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Name:    httputil.ParseQueryString(r, "name", ""),
		Trigger: Trigger(httputil.ParseQueryString(r, "trigger", "")),
	}
	hooks, err := h.service.List(r.Context(), profile.FromContext(r.Context()), filter)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, hooks)
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	hook, err := h.service.Get(r.Context(), profile.FromContext(r.Context()), id)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, hook)
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	var in UpdateInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	hook, err := h.service.Update(r.Context(), profile.FromContext(r.Context()), id, in)
	if err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, hook)
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

type propagationsResponse struct {
	Stats   PropagationStats    `json:"stats"`
	Records []PropagationRecord `json:"records"`
}

func (h *Handlers) propagations(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	// reading the hook enforces the admin check and a 404 for unknown ids
	if _, err := h.service.Get(r.Context(), profile.FromContext(r.Context()), id); err != nil {
		httputil.WriteDomainError(w, r, err)
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	_ = httputil.WriteSuccess(w, propagationsResponse{
		Stats:   h.log.Stats(id),
		Records: h.log.Recent(id, limit),
	})
}
