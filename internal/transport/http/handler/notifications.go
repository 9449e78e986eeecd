package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	notifapp "github.com/propdev-core/internal/application/notification"
	"github.com/propdev-core/internal/domain"
	"github.com/propdev-core/internal/transport/http/middleware"
)

// NotificationHandler handles send, lookup and provider-callback endpoints.
type NotificationHandler struct {
	svc notifapp.Service
}

func NewNotificationHandler(svc notifapp.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// UpsertRecipient registers a contact in the tenant's recipient directory.
func (h *NotificationHandler) UpsertRecipient(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var rec domain.Recipient
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec.TenantID = tc.TenantID
	if err := h.svc.UpsertRecipient(r.Context(), &rec); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.SendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.TenantID = tc.TenantID
	messageID, err := h.svc.Send(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message_id": messageID})
}

func (h *NotificationHandler) SendBulk(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.SendBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.TenantID = tc.TenantID
	result, err := h.svc.SendBulk(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	msg, err := h.svc.GetMessage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	if msg.TenantID != tc.TenantID {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// StatusCallback applies delivery-provider engagement callbacks
// (delivered, read, clicked, converted, bounced, unsubscribed, spam).
func (h *NotificationHandler) StatusCallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, http.StatusBadRequest, "status required")
		return
	}
	if err := h.svc.ExternalStatusUpdate(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "status recorded"})
}
