package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/propdev-core/internal/domain"
	"github.com/propdev-core/internal/pkg/id"
)

// ChannelSender delivers one message over one channel. Each implementation
// validates it has the contact info and content block it needs and returns a
// descriptive error otherwise; the error is captured on the delivery attempt,
// never propagated past the processor.
type ChannelSender interface {
	Channel() string
	Send(ctx context.Context, msg *domain.NotificationMessage) (deliveryID string, err error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type pushSender interface {
	SendPush(ctx context.Context, targetArn, message string) error
}

type tenantGetter interface {
	Get(ctx context.Context, tenantID string) (*domain.Tenant, error)
}

// EmailSender delivers over SMTP.
type EmailSender struct {
	Mailer mailer
}

func (s *EmailSender) Channel() string { return domain.ChannelEmail }

func (s *EmailSender) Send(_ context.Context, msg *domain.NotificationMessage) (string, error) {
	if msg.Recipient.Email == "" {
		return "", fmt.Errorf("recipient %s has no email address", msg.Recipient.RecipientID)
	}
	content, ok := msg.Content[domain.ChannelEmail]
	if !ok {
		return "", fmt.Errorf("message %s has no email content", msg.MessageID)
	}
	if err := s.Mailer.SendEmail(msg.Recipient.Email, content.Subject, content.Body); err != nil {
		return "", err
	}
	return id.New(), nil
}

// SMSSender delivers over AWS SNS phone publishing.
type SMSSender struct {
	Sender smsSender
}

func (s *SMSSender) Channel() string { return domain.ChannelSMS }

func (s *SMSSender) Send(ctx context.Context, msg *domain.NotificationMessage) (string, error) {
	if msg.Recipient.Phone == "" {
		return "", fmt.Errorf("recipient %s has no phone number", msg.Recipient.RecipientID)
	}
	content, ok := msg.Content[domain.ChannelSMS]
	if !ok {
		return "", fmt.Errorf("message %s has no sms content", msg.MessageID)
	}
	if err := s.Sender.SendSMS(ctx, msg.Recipient.Phone, content.Body); err != nil {
		return "", err
	}
	return id.New(), nil
}

// PushSender delivers to a device endpoint ARN over AWS SNS.
type PushSender struct {
	Sender pushSender
}

func (s *PushSender) Channel() string { return domain.ChannelPush }

func (s *PushSender) Send(ctx context.Context, msg *domain.NotificationMessage) (string, error) {
	if msg.Recipient.PushToken == "" {
		return "", fmt.Errorf("recipient %s has no push token", msg.Recipient.RecipientID)
	}
	content, ok := msg.Content[domain.ChannelPush]
	if !ok {
		return "", fmt.Errorf("message %s has no push content", msg.MessageID)
	}
	if err := s.Sender.SendPush(ctx, msg.Recipient.PushToken, content.Body); err != nil {
		return "", err
	}
	return id.New(), nil
}

// InAppSender marks the in-app channel delivered. The persisted message is the
// recipient's inbox record, so the write that created it already delivered it;
// this sender only validates the content block exists.
type InAppSender struct{}

func (s *InAppSender) Channel() string { return domain.ChannelInApp }

func (s *InAppSender) Send(_ context.Context, msg *domain.NotificationMessage) (string, error) {
	if _, ok := msg.Content[domain.ChannelInApp]; !ok {
		return "", fmt.Errorf("message %s has no in_app content", msg.MessageID)
	}
	return msg.MessageID, nil
}

// WebhookSender POSTs the message payload to the tenant's configured endpoint.
type WebhookSender struct {
	Tenants tenantGetter
	Client  *http.Client
}

func NewWebhookSender(tenants tenantGetter) *WebhookSender {
	return &WebhookSender{
		Tenants: tenants,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WebhookSender) Channel() string { return domain.ChannelWebhook }

func (s *WebhookSender) Send(ctx context.Context, msg *domain.NotificationMessage) (string, error) {
	content, ok := msg.Content[domain.ChannelWebhook]
	if !ok {
		return "", fmt.Errorf("message %s has no webhook content", msg.MessageID)
	}
	t, err := s.Tenants.Get(ctx, msg.TenantID)
	if err != nil {
		return "", err
	}
	if t == nil || t.WebhookEndpoint == "" {
		return "", fmt.Errorf("tenant %s has no webhook endpoint configured", msg.TenantID)
	}
	payload, err := json.Marshal(map[string]interface{}{
		"message_id":   msg.MessageID,
		"template_id":  msg.TemplateID,
		"recipient_id": msg.Recipient.RecipientID,
		"body":         content.Body,
		"tracking":     msg.Tracking,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.WebhookEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return id.New(), nil
}
