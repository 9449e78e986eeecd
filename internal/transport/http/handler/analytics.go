package handler

import (
	"net/http"
	"time"

	notifapp "github.com/propdev-core/internal/application/notification"
	"github.com/propdev-core/internal/transport/http/middleware"
)

// AnalyticsHandler serves the notification delivery read model.
type AnalyticsHandler struct {
	svc notifapp.Service
}

func NewAnalyticsHandler(svc notifapp.Service) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// Notifications returns aggregate delivery and engagement stats for the
// resolved tenant. Defaults to the trailing 30 days when no range is given.
func (h *AnalyticsHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	now := time.Now().UTC()
	params := notifapp.AnalyticsParams{
		TenantID: tc.TenantID,
		From:     now.AddDate(0, 0, -30),
		To:       now,
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		params.From = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		params.To = t
	}
	report, err := h.svc.Analytics(r.Context(), params)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
