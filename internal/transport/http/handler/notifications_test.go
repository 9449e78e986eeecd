package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	notifapp "github.com/propdev-core/internal/application/notification"
	"github.com/propdev-core/internal/domain"
	"github.com/propdev-core/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockNotifService struct{ mock.Mock }

func (m *mockNotifService) CreateTemplate(ctx context.Context, req domain.CreateTemplateRequest) (*domain.NotificationTemplate, error) {
	args := m.Called(ctx, req)
	if t, _ := args.Get(0).(*domain.NotificationTemplate); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotifService) GetTemplate(ctx context.Context, templateID string) (*domain.NotificationTemplate, error) {
	args := m.Called(ctx, templateID)
	if t, _ := args.Get(0).(*domain.NotificationTemplate); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotifService) ListTemplates(ctx context.Context, tenantID string) ([]domain.NotificationTemplate, error) {
	args := m.Called(ctx, tenantID)
	ts, _ := args.Get(0).([]domain.NotificationTemplate)
	return ts, args.Error(1)
}

func (m *mockNotifService) UpsertRecipient(ctx context.Context, rec *domain.Recipient) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockNotifService) Send(ctx context.Context, req domain.SendNotificationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockNotifService) SendBulk(ctx context.Context, req domain.SendBulkRequest) (*domain.BulkResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*domain.BulkResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotifService) GetMessage(ctx context.Context, messageID string) (*domain.NotificationMessage, error) {
	args := m.Called(ctx, messageID)
	if msg, _ := args.Get(0).(*domain.NotificationMessage); msg != nil {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotifService) ExternalStatusUpdate(ctx context.Context, messageID, status string) error {
	return m.Called(ctx, messageID, status).Error(0)
}

func (m *mockNotifService) Analytics(ctx context.Context, params notifapp.AnalyticsParams) (*notifapp.AnalyticsReport, error) {
	args := m.Called(ctx, params)
	if r, _ := args.Get(0).(*notifapp.AnalyticsReport); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func notifRouter(svc *mockNotifService) http.Handler {
	nh := NewNotificationHandler(svc)
	th := NewTemplateHandler(svc)
	ah := NewAnalyticsHandler(svc)
	r := chi.NewRouter()
	r.Post("/v1/templates", th.Create)
	r.Get("/v1/templates", th.List)
	r.Get("/v1/templates/{id}", th.Get)
	r.Put("/v1/recipients", nh.UpsertRecipient)
	r.Post("/v1/notifications", nh.Send)
	r.Post("/v1/notifications/bulk", nh.SendBulk)
	r.Get("/v1/notifications/{id}", nh.Get)
	r.Post("/v1/notifications/{id}/status", nh.StatusCallback)
	r.Get("/v1/analytics/notifications", ah.Notifications)
	return r
}

func asTenant(req *http.Request, tenantID string) *http.Request {
	tc := &domain.TenantContext{
		TenantID:    tenantID,
		Permissions: domain.PermissionsForRole(domain.MemberRoleAdmin),
		RateLimit:   domain.RateLimitForTier(domain.TierStarter),
	}
	return req.WithContext(context.WithValue(req.Context(), middleware.TenantContextKey, tc))
}

// --- tests ---

func TestNotificationHandler_UpsertRecipientForcesTenant(t *testing.T) {
	svc := &mockNotifService{}
	svc.On("UpsertRecipient", mock.Anything, mock.MatchedBy(func(rec *domain.Recipient) bool {
		return rec.TenantID == "t1" && rec.Email == "anna@example.com"
	})).Return(nil)

	body := `{"tenant_id":"spoofed","email":"anna@example.com"}`
	req := asTenant(httptest.NewRequest(http.MethodPut, "/v1/recipients", strings.NewReader(body)), "t1")
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestNotificationHandler_SendOverridesTenantFromContext(t *testing.T) {
	svc := &mockNotifService{}
	svc.On("Send", mock.Anything, mock.MatchedBy(func(req domain.SendNotificationRequest) bool {
		return req.TenantID == "t1" && req.TemplateID == "tpl1" && req.RecipientID == "r1"
	})).Return("m1", nil)

	body := `{"template_id":"tpl1","tenant_id":"someone-else","recipient_id":"r1"}`
	req := asTenant(httptest.NewRequest(http.MethodPost, "/v1/notifications", strings.NewReader(body)), "t1")
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "m1")
	svc.AssertExpectations(t)
}

func TestNotificationHandler_SendWithoutTenantContext(t *testing.T) {
	svc := &mockNotifService{}
	body := `{"template_id":"tpl1","recipient_id":"r1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications", strings.NewReader(body))
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "Send")
}

func TestNotificationHandler_SendQuotaDenied(t *testing.T) {
	svc := &mockNotifService{}
	svc.On("Send", mock.Anything, mock.Anything).Return("", domain.ErrForbidden)

	body := `{"template_id":"tpl1","recipient_id":"r1"}`
	req := asTenant(httptest.NewRequest(http.MethodPost, "/v1/notifications", strings.NewReader(body)), "t1")
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNotificationHandler_SendBulk(t *testing.T) {
	svc := &mockNotifService{}
	svc.On("SendBulk", mock.Anything, mock.MatchedBy(func(req domain.SendBulkRequest) bool {
		return req.TenantID == "t1" && len(req.RecipientIDs) == 2
	})).Return(&domain.BulkResult{MessageIDs: []string{"m1"}, Failed: []string{"r2"}}, nil)

	body := `{"template_id":"tpl1","recipient_ids":["r1","r2"]}`
	req := asTenant(httptest.NewRequest(http.MethodPost, "/v1/notifications/bulk", strings.NewReader(body)), "t1")
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"failed":["r2"]`)
}

func TestNotificationHandler_GetCrossTenantIs404(t *testing.T) {
	svc := &mockNotifService{}
	svc.On("GetMessage", mock.Anything, "m1").
		Return(&domain.NotificationMessage{MessageID: "m1", TenantID: "other"}, nil)

	req := asTenant(httptest.NewRequest(http.MethodGet, "/v1/notifications/m1", nil), "t1")
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "message not found")
}

func TestNotificationHandler_StatusCallback(t *testing.T) {
	svc := &mockNotifService{}
	svc.On("ExternalStatusUpdate", mock.Anything, "m1", "delivered").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/m1/status", strings.NewReader(`{"status":"delivered"}`))
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestNotificationHandler_StatusCallbackMissingStatus(t *testing.T) {
	svc := &mockNotifService{}
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/m1/status", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "ExternalStatusUpdate")
}

func TestTemplateHandler_CreateForcesTenant(t *testing.T) {
	svc := &mockNotifService{}
	svc.On("CreateTemplate", mock.Anything, mock.MatchedBy(func(req domain.CreateTemplateRequest) bool {
		return req.TenantID == "t1"
	})).Return(&domain.NotificationTemplate{TemplateID: "tpl1", TenantID: "t1"}, nil)

	body := `{"tenant_id":"spoofed","name":"payment-reminder","category":"billing","channels":["email"],"priority":"normal","content":{"email":{"subject":"s","body":"b"}}}`
	req := asTenant(httptest.NewRequest(http.MethodPost, "/v1/templates", strings.NewReader(body)), "t1")
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestTemplateHandler_GetCrossTenantIs404(t *testing.T) {
	svc := &mockNotifService{}
	svc.On("GetTemplate", mock.Anything, "tpl1").
		Return(&domain.NotificationTemplate{TemplateID: "tpl1", TenantID: "other"}, nil)

	req := asTenant(httptest.NewRequest(http.MethodGet, "/v1/templates/tpl1", nil), "t1")
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "template not found")
}

func TestTemplateHandler_ListScopedToResolvedTenant(t *testing.T) {
	svc := &mockNotifService{}
	svc.On("ListTemplates", mock.Anything, "t1").
		Return([]domain.NotificationTemplate{{TemplateID: "tpl1", TenantID: "t1"}}, nil)

	req := asTenant(httptest.NewRequest(http.MethodGet, "/v1/templates", nil), "t1")
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tpl1")
	svc.AssertExpectations(t)
}

func TestTemplateHandler_ListWithoutTenantContext(t *testing.T) {
	svc := &mockNotifService{}

	req := httptest.NewRequest(http.MethodGet, "/v1/templates", nil)
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "ListTemplates", mock.Anything, mock.Anything)
}

func TestAnalyticsHandler_ScopedToResolvedTenant(t *testing.T) {
	svc := &mockNotifService{}
	svc.On("Analytics", mock.Anything, mock.MatchedBy(func(p notifapp.AnalyticsParams) bool {
		return p.TenantID == "t1" && p.To.After(p.From)
	})).Return(&notifapp.AnalyticsReport{TenantID: "t1", Total: 3}, nil)

	req := asTenant(httptest.NewRequest(http.MethodGet, "/v1/analytics/notifications", nil), "t1")
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":3`)
}

func TestAnalyticsHandler_BadFromTimestamp(t *testing.T) {
	svc := &mockNotifService{}
	req := asTenant(httptest.NewRequest(http.MethodGet, "/v1/analytics/notifications?from=yesterday", nil), "t1")
	rec := httptest.NewRecorder()
	notifRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Analytics")
}
