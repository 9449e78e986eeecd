package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/propdev-core/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockTenantGetter struct{ mock.Mock }

func (m *mockTenantGetter) Get(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	args := m.Called(ctx, tenantID)
	if t, _ := args.Get(0).(*domain.Tenant); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func channelMessage(channels ...string) *domain.NotificationMessage {
	content := make(map[string]domain.ChannelContent, len(channels))
	for _, ch := range channels {
		content[ch] = domain.ChannelContent{Subject: "Payment due", Body: "Hi Anna"}
	}
	return &domain.NotificationMessage{
		MessageID:  "m1",
		TemplateID: "tpl1",
		TenantID:   "t1",
		Recipient:  *annaRecipient(),
		Content:    content,
		Channels:   channels,
	}
}

// --- tests ---

func TestEmailSender_Send(t *testing.T) {
	m := &mockMailer{}
	m.On("SendEmail", "anna@example.com", "Payment due", "Hi Anna").Return(nil)
	s := &EmailSender{Mailer: m}

	deliveryID, err := s.Send(context.Background(), channelMessage(domain.ChannelEmail))

	require.NoError(t, err)
	assert.NotEmpty(t, deliveryID)
	m.AssertExpectations(t)
}

func TestEmailSender_NoAddress(t *testing.T) {
	s := &EmailSender{Mailer: &mockMailer{}}
	msg := channelMessage(domain.ChannelEmail)
	msg.Recipient.Email = ""

	_, err := s.Send(context.Background(), msg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no email address")
}

func TestEmailSender_MailerFailure(t *testing.T) {
	m := &mockMailer{}
	m.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp refused"))
	s := &EmailSender{Mailer: m}

	_, err := s.Send(context.Background(), channelMessage(domain.ChannelEmail))

	assert.Error(t, err)
}

func TestInAppSender_ReturnsMessageID(t *testing.T) {
	s := &InAppSender{}
	deliveryID, err := s.Send(context.Background(), channelMessage(domain.ChannelInApp))

	require.NoError(t, err)
	assert.Equal(t, "m1", deliveryID)
}

func TestInAppSender_MissingContent(t *testing.T) {
	s := &InAppSender{}
	_, err := s.Send(context.Background(), channelMessage(domain.ChannelEmail))
	assert.Error(t, err)
}

func TestWebhookSender_PostsPayload(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := &mockTenantGetter{}
	tg.On("Get", mock.Anything, "t1").Return(&domain.Tenant{TenantID: "t1", WebhookEndpoint: srv.URL}, nil)
	s := NewWebhookSender(tg)

	deliveryID, err := s.Send(context.Background(), channelMessage(domain.ChannelWebhook))

	require.NoError(t, err)
	assert.NotEmpty(t, deliveryID)
	assert.Equal(t, "m1", got["message_id"])
	assert.Equal(t, "r1", got["recipient_id"])
}

func TestWebhookSender_EndpointNotConfigured(t *testing.T) {
	tg := &mockTenantGetter{}
	tg.On("Get", mock.Anything, "t1").Return(&domain.Tenant{TenantID: "t1"}, nil)
	s := NewWebhookSender(tg)

	_, err := s.Send(context.Background(), channelMessage(domain.ChannelWebhook))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no webhook endpoint")
}

func TestWebhookSender_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tg := &mockTenantGetter{}
	tg.On("Get", mock.Anything, "t1").Return(&domain.Tenant{TenantID: "t1", WebhookEndpoint: srv.URL}, nil)
	s := NewWebhookSender(tg)

	_, err := s.Send(context.Background(), channelMessage(domain.ChannelWebhook))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
