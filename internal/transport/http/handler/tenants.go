package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	tenantapp "github.com/propdev-core/internal/application/tenant"
	"github.com/propdev-core/internal/domain"
)

// TenantHandler handles tenant provisioning, lifecycle and quota endpoints.
type TenantHandler struct {
	svc tenantapp.Service
}

func NewTenantHandler(svc tenantapp.Service) *TenantHandler { return &TenantHandler{svc: svc} }

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.svc.Create(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TenantHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TenantID string `json:"tenant_id"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, member, err := h.svc.Authenticate(r.Context(), req.TenantID, req.Email, req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: token, UserID: member.UserID})
}

func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 50
	}
	tenants, next, err := h.svc.List(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PaginatedTenantsEnvelope{Data: tenants, NextCursor: next})
}

func (h *TenantHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListMembers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Lifecycle dispatches activate/suspend/terminate transitions.
func (h *TenantHandler) Lifecycle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var err error
	var msg string
	switch chi.URLParam(r, "action") {
	case "activate":
		err = h.svc.Activate(r.Context(), id)
		msg = "tenant activated"
	case "suspend":
		err = h.svc.Suspend(r.Context(), id)
		msg = "tenant suspended"
	case "terminate":
		err = h.svc.Terminate(r.Context(), id)
		msg = "tenant terminated"
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: msg})
}

func (h *TenantHandler) CheckQuota(w http.ResponseWriter, r *http.Request) {
	amount := int64(1)
	if raw := r.URL.Query().Get("amount"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid amount")
			return
		}
		amount = parsed
	}
	result, err := h.svc.CheckQuota(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "resource"), amount)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *TenantHandler) UpdateUsage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Resource string `json:"resource"`
		Delta    int64  `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Resource == "" {
		writeError(w, http.StatusBadRequest, "resource and delta required")
		return
	}
	if err := h.svc.UpdateUsage(r.Context(), chi.URLParam(r, "id"), req.Resource, req.Delta); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "usage updated"})
}

func (h *TenantHandler) UploadBrandingLogo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer f.Close()

	url, err := h.svc.UploadBrandingLogo(r.Context(), chi.URLParam(r, "id"), header.Filename, f, header.Header.Get("Content-Type"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"logo_url": url})
}
