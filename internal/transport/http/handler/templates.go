package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	notifapp "github.com/propdev-core/internal/application/notification"
	"github.com/propdev-core/internal/domain"
	"github.com/propdev-core/internal/transport/http/middleware"
)

// TemplateHandler handles notification template endpoints. All routes are
// tenant-scoped: the tenant ID always comes from the resolved tenant context,
// never from the request body.
type TemplateHandler struct {
	svc notifapp.Service
}

func NewTemplateHandler(svc notifapp.Service) *TemplateHandler { return &TemplateHandler{svc: svc} }

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.TenantID = tc.TenantID
	tpl, err := h.svc.CreateTemplate(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	templates, err := h.svc.ListTemplates(r.Context(), tc.TenantID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	tpl, err := h.svc.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	if tpl.TenantID != tc.TenantID {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}
