package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/propdev-core/internal/domain"
	"github.com/propdev-core/internal/pkg/id"
	"github.com/propdev-core/internal/pkg/render"
	"github.com/propdev-core/internal/pkg/validate"
)

const defaultBatchSize = 100

type Service interface {
	CreateTemplate(ctx context.Context, req domain.CreateTemplateRequest) (*domain.NotificationTemplate, error)
	GetTemplate(ctx context.Context, templateID string) (*domain.NotificationTemplate, error)
	ListTemplates(ctx context.Context, tenantID string) ([]domain.NotificationTemplate, error)
	// UpsertRecipient registers or refreshes a directory entry. A missing
	// recipient ID gets a fresh one.
	UpsertRecipient(ctx context.Context, rec *domain.Recipient) error
	Send(ctx context.Context, req domain.SendNotificationRequest) (string, error)
	SendBulk(ctx context.Context, req domain.SendBulkRequest) (*domain.BulkResult, error)
	GetMessage(ctx context.Context, messageID string) (*domain.NotificationMessage, error)
	// ExternalStatusUpdate applies delivery-provider callbacks
	// (delivered/read/clicked/converted/bounced/unsubscribed/spam).
	ExternalStatusUpdate(ctx context.Context, messageID, status string) error
	Analytics(ctx context.Context, params AnalyticsParams) (*AnalyticsReport, error)
}

type templateStore interface {
	Put(ctx context.Context, t *domain.NotificationTemplate) error
	Get(ctx context.Context, templateID string) (*domain.NotificationTemplate, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.NotificationTemplate, error)
}

type messageStore interface {
	Put(ctx context.Context, m *domain.NotificationMessage) error
	Get(ctx context.Context, messageID string) (*domain.NotificationMessage, error)
	ListByTenantRange(ctx context.Context, tenantID string, from, to time.Time) ([]domain.NotificationMessage, error)
}

type recipientDirectory interface {
	Put(ctx context.Context, rec *domain.Recipient) error
	Get(ctx context.Context, recipientID string) (*domain.Recipient, error)
}

type quotaGovernor interface {
	ReserveQuota(ctx context.Context, tenantID, resource string, amount int64) (domain.QuotaResult, error)
}

type auditSink interface {
	Record(ctx context.Context, ev *domain.AuditEvent) error
}

type service struct {
	templates  templateStore
	messages   messageStore
	recipients recipientDirectory
	quota      quotaGovernor
	queue      MessageQueue
	senders    map[string]ChannelSender
	audit      auditSink
}

type ServiceDeps struct {
	TemplateRepo  templateStore
	MessageRepo   messageStore
	RecipientRepo recipientDirectory
	Quota         quotaGovernor
	Queue         MessageQueue
	Senders       []ChannelSender
	AuditSink     auditSink
}

func NewService(deps ServiceDeps) Service {
	senders := make(map[string]ChannelSender, len(deps.Senders))
	for _, s := range deps.Senders {
		senders[s.Channel()] = s
	}
	return &service{
		templates:  deps.TemplateRepo,
		messages:   deps.MessageRepo,
		recipients: deps.RecipientRepo,
		quota:      deps.Quota,
		queue:      deps.Queue,
		senders:    senders,
		audit:      deps.AuditSink,
	}
}

func (s *service) CreateTemplate(ctx context.Context, req domain.CreateTemplateRequest) (*domain.NotificationTemplate, error) {
	if err := validate.Struct(req); err != nil {
		return nil, &domain.ValidationError{Violations: strings.Split(err.Error(), "; ")}
	}
	// Every declared channel needs a content block; a template that lists a
	// channel it cannot render would fail every send on that channel.
	var missing []string
	for _, ch := range req.Channels {
		if _, ok := req.Content[ch]; !ok {
			missing = append(missing, fmt.Sprintf("channel %q has no content block", ch))
		}
	}
	if len(missing) > 0 {
		return nil, &domain.ValidationError{Violations: missing}
	}
	now := time.Now().UTC()
	t := &domain.NotificationTemplate{
		TemplateID: id.New(),
		TenantID:   req.TenantID,
		Name:       req.Name,
		Category:   req.Category,
		Channels:   req.Channels,
		Priority:   req.Priority,
		Content:    req.Content,
		Variables:  req.Variables,
		Delivery:   req.Delivery,
		Compliance: req.Compliance,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.templates.Put(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) GetTemplate(ctx context.Context, templateID string) (*domain.NotificationTemplate, error) {
	return s.templates.Get(ctx, templateID)
}

func (s *service) ListTemplates(ctx context.Context, tenantID string) ([]domain.NotificationTemplate, error) {
	return s.templates.ListByTenant(ctx, tenantID)
}

func (s *service) UpsertRecipient(ctx context.Context, rec *domain.Recipient) error {
	if rec.TenantID == "" {
		return fmt.Errorf("recipient tenant id is required: %w", domain.ErrBadRequest)
	}
	if rec.Email == "" && rec.Phone == "" && rec.PushToken == "" {
		return fmt.Errorf("recipient needs at least one contact method: %w", domain.ErrBadRequest)
	}
	if rec.RecipientID == "" {
		rec.RecipientID = id.New()
	}
	return s.recipients.Put(ctx, rec)
}

func (s *service) Send(ctx context.Context, req domain.SendNotificationRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", &domain.ValidationError{Violations: strings.Split(err.Error(), "; ")}
	}
	tmpl, err := s.templates.Get(ctx, req.TemplateID)
	if err != nil {
		return "", err
	}
	if tmpl.TenantID != req.TenantID {
		return "", fmt.Errorf("template %s: %w", req.TemplateID, domain.ErrNotFound)
	}
	recipient, err := s.recipients.Get(ctx, req.RecipientID)
	if err != nil {
		return "", err
	}
	if recipient.TenantID != req.TenantID {
		return "", fmt.Errorf("recipient %s: %w", req.RecipientID, domain.ErrNotFound)
	}
	if tmpl.Compliance.RequireConsent && recipient.OptedOut {
		return "", fmt.Errorf("recipient %s has opted out: %w", recipient.RecipientID, domain.ErrForbidden)
	}
	if s.quota != nil {
		res, err := s.quota.ReserveQuota(ctx, req.TenantID, domain.ResourceNotifications, 1)
		if err != nil {
			return "", err
		}
		if !res.Allowed {
			return "", fmt.Errorf("%s: %w", res.Message, domain.ErrForbidden)
		}
	}

	channels := req.Channels
	if len(channels) == 0 {
		channels = tmpl.Channels
	}
	priority := req.Priority
	if priority == "" {
		priority = tmpl.Priority
	}
	content := make(map[string]domain.ChannelContent, len(channels))
	for _, ch := range channels {
		block, ok := tmpl.Content[ch]
		if !ok {
			continue
		}
		content[ch] = domain.ChannelContent{
			Subject: render.Render(block.Subject, req.Variables),
			Body:    render.Render(block.Body, req.Variables),
		}
	}

	now := time.Now().UTC()
	msg := &domain.NotificationMessage{
		MessageID:   id.New(),
		TemplateID:  tmpl.TemplateID,
		TenantID:    req.TenantID,
		Recipient:   *recipient,
		Content:     content,
		Channels:    channels,
		Priority:    priority,
		Status:      domain.MessageStatusPending,
		ScheduledAt: req.ScheduledAt,
		ExpiresAt:   req.ExpiresAt,
		Tracking:    req.Tracking,
		Delivery:    tmpl.Delivery,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.messages.Put(ctx, msg); err != nil {
		return "", err
	}

	// Urgent and critical traffic never waits for the poll loop.
	if priority == domain.PriorityUrgent || priority == domain.PriorityCritical {
		s.deliver(ctx, msg)
	} else {
		msg.Status = domain.MessageStatusQueued
		msg.UpdatedAt = time.Now().UTC()
		if err := s.messages.Put(ctx, msg); err != nil {
			return "", err
		}
		if err := s.queue.Enqueue(ctx, msg.MessageID); err != nil {
			return "", err
		}
	}
	s.recordAudit(ctx, "notification.sent", req.TenantID, domain.AuditDetail{
		Action:      "send_notification",
		Description: fmt.Sprintf("template %s to recipient %s", tmpl.TemplateID, recipient.RecipientID),
		Outcome:     "success",
		Metadata:    map[string]string{"message_id": msg.MessageID, "priority": priority},
	})
	return msg.MessageID, nil
}

func (s *service) SendBulk(ctx context.Context, req domain.SendBulkRequest) (*domain.BulkResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, &domain.ValidationError{Violations: strings.Split(err.Error(), "; ")}
	}
	tmpl, err := s.templates.Get(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = tmpl.Delivery.BatchSize
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	result := &domain.BulkResult{}
	var mu sync.Mutex
	for start := 0; start < len(req.RecipientIDs); start += batchSize {
		end := start + batchSize
		if end > len(req.RecipientIDs) {
			end = len(req.RecipientIDs)
		}
		var wg sync.WaitGroup
		for _, rid := range req.RecipientIDs[start:end] {
			wg.Add(1)
			go func(recipientID string) {
				defer wg.Done()
				if req.Segmentation != nil {
					rec, err := s.recipients.Get(ctx, recipientID)
					if err != nil {
						mu.Lock()
						result.Failed = append(result.Failed, recipientID)
						mu.Unlock()
						return
					}
					if !matchesSegment(rec, req.Segmentation) {
						return
					}
				}
				msgID, err := s.Send(ctx, domain.SendNotificationRequest{
					TemplateID:  req.TemplateID,
					TenantID:    req.TenantID,
					RecipientID: recipientID,
					Variables:   req.Variables,
					ScheduledAt: req.ScheduledAt,
				})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed = append(result.Failed, recipientID)
					return
				}
				result.MessageIDs = append(result.MessageIDs, msgID)
			}(rid)
		}
		wg.Wait()
		if tmpl.Delivery.ThrottleDelay > 0 && end < len(req.RecipientIDs) {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(tmpl.Delivery.ThrottleDelay):
			}
		}
	}
	s.recordAudit(ctx, "notification.bulk_sent", req.TenantID, domain.AuditDetail{
		Action:      "send_bulk_notification",
		Description: fmt.Sprintf("template %s to %d recipients", req.TemplateID, len(req.RecipientIDs)),
		Outcome:     "success",
		Metadata: map[string]string{
			"sent":   fmt.Sprintf("%d", len(result.MessageIDs)),
			"failed": fmt.Sprintf("%d", len(result.Failed)),
		},
	})
	return result, nil
}

func matchesSegment(rec *domain.Recipient, seg *domain.Segmentation) bool {
	if len(seg.UserTypes) > 0 && !contains(seg.UserTypes, rec.UserType) {
		return false
	}
	if len(seg.Regions) > 0 && !contains(seg.Regions, rec.Region) {
		return false
	}
	if len(seg.Tags) > 0 {
		found := false
		for _, t := range rec.Tags {
			if contains(seg.Tags, t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func (s *service) GetMessage(ctx context.Context, messageID string) (*domain.NotificationMessage, error) {
	return s.messages.Get(ctx, messageID)
}

func (s *service) ExternalStatusUpdate(ctx context.Context, messageID, status string) error {
	switch status {
	case domain.MessageStatusDelivered, domain.MessageStatusRead, domain.MessageStatusClicked,
		domain.MessageStatusConverted, domain.MessageStatusBounced,
		domain.MessageStatusUnsubscribed, domain.MessageStatusSpam:
	default:
		return fmt.Errorf("invalid external status %q: %w", status, domain.ErrBadRequest)
	}
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if domain.TerminalMessageStatus(msg.Status) {
		return fmt.Errorf("message %s is in terminal status %s: %w", messageID, msg.Status, domain.ErrConflict)
	}
	now := time.Now().UTC()
	switch status {
	case domain.MessageStatusRead:
		msg.Engagement.OpenedAt = &now
	case domain.MessageStatusClicked:
		msg.Engagement.ClickedAt = &now
	case domain.MessageStatusConverted:
		msg.Engagement.ConvertedAt = &now
	case domain.MessageStatusUnsubscribed:
		msg.Engagement.UnsubscribedAt = &now
	}
	msg.Status = status
	msg.UpdatedAt = now
	return s.messages.Put(ctx, msg)
}

func (s *service) recordAudit(ctx context.Context, eventType, target string, detail domain.AuditDetail) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, &domain.AuditEvent{
		EventID:   id.New(),
		EventType: eventType,
		RiskLevel: domain.AuditRiskLow,
		Category:  domain.AuditCategoryNotification,
		Actor:     "system",
		Target:    target,
		Event:     detail,
		Compliance: domain.AuditCompliance{
			Frameworks:      []string{"GDPR"},
			RetentionPeriod: "2y",
			AuditRequired:   true,
		},
		CreatedAt: time.Now().UTC(),
	})
}
