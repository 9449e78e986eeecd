package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/propdev-core/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks and fakes ---

type mockTemplateStore struct{ mock.Mock }

func (m *mockTemplateStore) Put(ctx context.Context, t *domain.NotificationTemplate) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTemplateStore) Get(ctx context.Context, templateID string) (*domain.NotificationTemplate, error) {
	args := m.Called(ctx, templateID)
	if t, _ := args.Get(0).(*domain.NotificationTemplate); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTemplateStore) ListByTenant(ctx context.Context, tenantID string) ([]domain.NotificationTemplate, error) {
	args := m.Called(ctx, tenantID)
	if ts, _ := args.Get(0).([]domain.NotificationTemplate); ts != nil {
		return ts, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRecipientDir struct{ mock.Mock }

func (m *mockRecipientDir) Put(ctx context.Context, rec *domain.Recipient) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockRecipientDir) Get(ctx context.Context, recipientID string) (*domain.Recipient, error) {
	args := m.Called(ctx, recipientID)
	if r, _ := args.Get(0).(*domain.Recipient); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockQuota struct{ mock.Mock }

func (m *mockQuota) ReserveQuota(ctx context.Context, tenantID, resource string, amount int64) (domain.QuotaResult, error) {
	args := m.Called(ctx, tenantID, resource, amount)
	return args.Get(0).(domain.QuotaResult), args.Error(1)
}

// fakeMessageStore is a map-backed stand-in; bulk sends write concurrently.
type fakeMessageStore struct {
	mu   sync.Mutex
	byID map[string]*domain.NotificationMessage
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{byID: map[string]*domain.NotificationMessage{}}
}

func (f *fakeMessageStore) Put(_ context.Context, m *domain.NotificationMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[m.MessageID] = m
	return nil
}

func (f *fakeMessageStore) Get(_ context.Context, messageID string) (*domain.NotificationMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[messageID]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}
	return m, nil
}

func (f *fakeMessageStore) ListByTenantRange(_ context.Context, tenantID string, _, _ time.Time) ([]domain.NotificationMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.NotificationMessage
	for _, m := range f.byID {
		if m.TenantID == tenantID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// scriptedSender fails its first `failures` calls and succeeds afterwards.
type scriptedSender struct {
	channel  string
	failures int

	mu    sync.Mutex
	calls int
}

func (s *scriptedSender) Channel() string { return s.channel }

func (s *scriptedSender) Send(_ context.Context, _ *domain.NotificationMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return "", errors.New("provider unavailable")
	}
	return fmt.Sprintf("delivery-%d", s.calls), nil
}

func (s *scriptedSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// --- helpers ---

const alwaysFail = 1 << 30

func newNotifService(tpl *mockTemplateStore, msgs *fakeMessageStore, rec *mockRecipientDir, quota *mockQuota, q MessageQueue, senders ...ChannelSender) Service {
	deps := ServiceDeps{
		TemplateRepo:  tpl,
		MessageRepo:   msgs,
		RecipientRepo: rec,
		Queue:         q,
		Senders:       senders,
	}
	if quota != nil {
		deps.Quota = quota
	}
	return NewService(deps)
}

func emailTemplate(priority string) *domain.NotificationTemplate {
	return &domain.NotificationTemplate{
		TemplateID: "tpl1",
		TenantID:   "t1",
		Name:       "payment-reminder",
		Category:   "billing",
		Channels:   []string{domain.ChannelEmail},
		Priority:   priority,
		Content: map[string]domain.ChannelContent{
			domain.ChannelEmail: {Subject: "Payment due", Body: "Hi {{name}}, payment of {{amount}} is due"},
		},
	}
}

func annaRecipient() *domain.Recipient {
	return &domain.Recipient{RecipientID: "r1", TenantID: "t1", Email: "anna@example.com"}
}

func allowAll(q *mockQuota) {
	q.On("ReserveQuota", mock.Anything, "t1", domain.ResourceNotifications, int64(1)).
		Return(domain.QuotaResult{Allowed: true, Remaining: 10}, nil)
}

func baseTemplateReq() domain.CreateTemplateRequest {
	return domain.CreateTemplateRequest{
		TenantID: "t1",
		Name:     "payment-reminder",
		Category: "billing",
		Channels: []string{domain.ChannelEmail},
		Priority: domain.PriorityNormal,
		Content: map[string]domain.ChannelContent{
			domain.ChannelEmail: {Subject: "Payment due", Body: "Hi {{name}}"},
		},
	}
}

// --- CreateTemplate ---

func TestCreateTemplate_HappyPath(t *testing.T) {
	tpl := &mockTemplateStore{}
	tpl.On("Put", mock.Anything, mock.AnythingOfType("*domain.NotificationTemplate")).Return(nil)

	svc := newNotifService(tpl, newFakeMessageStore(), &mockRecipientDir{}, nil, NewMemoryQueue())
	created, err := svc.CreateTemplate(context.Background(), baseTemplateReq())

	require.NoError(t, err)
	assert.NotEmpty(t, created.TemplateID)
	assert.Equal(t, 1, created.Version)
	tpl.AssertExpectations(t)
}

func TestCreateTemplate_ChannelWithoutContent(t *testing.T) {
	svc := newNotifService(&mockTemplateStore{}, newFakeMessageStore(), &mockRecipientDir{}, nil, NewMemoryQueue())
	req := baseTemplateReq()
	req.Channels = []string{domain.ChannelEmail, domain.ChannelSMS}

	_, err := svc.CreateTemplate(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "sms")
}

func TestCreateTemplate_UnknownChannel(t *testing.T) {
	svc := newNotifService(&mockTemplateStore{}, newFakeMessageStore(), &mockRecipientDir{}, nil, NewMemoryQueue())
	req := baseTemplateReq()
	req.Channels = []string{"carrier_pigeon"}

	_, err := svc.CreateTemplate(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestListTemplates_ScopedToTenant(t *testing.T) {
	tpl := &mockTemplateStore{}
	tpl.On("ListByTenant", mock.Anything, "t1").
		Return([]domain.NotificationTemplate{*emailTemplate(domain.PriorityNormal)}, nil)

	svc := newNotifService(tpl, newFakeMessageStore(), &mockRecipientDir{}, nil, NewMemoryQueue())
	templates, err := svc.ListTemplates(context.Background(), "t1")

	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "tpl1", templates[0].TemplateID)
}

// --- UpsertRecipient ---

func TestUpsertRecipient_AssignsID(t *testing.T) {
	rec := &mockRecipientDir{}
	rec.On("Put", mock.Anything, mock.MatchedBy(func(r *domain.Recipient) bool {
		return r.RecipientID != "" && r.TenantID == "t1"
	})).Return(nil)

	svc := newNotifService(&mockTemplateStore{}, newFakeMessageStore(), rec, nil, NewMemoryQueue())
	entry := &domain.Recipient{TenantID: "t1", Email: "anna@example.com"}
	require.NoError(t, svc.UpsertRecipient(context.Background(), entry))

	assert.NotEmpty(t, entry.RecipientID)
	rec.AssertExpectations(t)
}

func TestUpsertRecipient_KeepsExistingID(t *testing.T) {
	rec := &mockRecipientDir{}
	rec.On("Put", mock.Anything, mock.Anything).Return(nil)

	svc := newNotifService(&mockTemplateStore{}, newFakeMessageStore(), rec, nil, NewMemoryQueue())
	entry := &domain.Recipient{RecipientID: "r1", TenantID: "t1", Phone: "+447700900123"}
	require.NoError(t, svc.UpsertRecipient(context.Background(), entry))

	assert.Equal(t, "r1", entry.RecipientID)
}

func TestUpsertRecipient_NoContactMethod(t *testing.T) {
	svc := newNotifService(&mockTemplateStore{}, newFakeMessageStore(), &mockRecipientDir{}, nil, NewMemoryQueue())
	err := svc.UpsertRecipient(context.Background(), &domain.Recipient{TenantID: "t1"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

// --- Send ---

func TestSend_NormalPriorityIsQueued(t *testing.T) {
	tpl := &mockTemplateStore{}
	tpl.On("Get", mock.Anything, "tpl1").Return(emailTemplate(domain.PriorityNormal), nil)
	rec := &mockRecipientDir{}
	rec.On("Get", mock.Anything, "r1").Return(annaRecipient(), nil)
	quota := &mockQuota{}
	allowAll(quota)
	msgs := newFakeMessageStore()
	q := NewMemoryQueue()
	email := &scriptedSender{channel: domain.ChannelEmail}

	svc := newNotifService(tpl, msgs, rec, quota, q, email)
	msgID, err := svc.Send(context.Background(), domain.SendNotificationRequest{
		TemplateID: "tpl1", TenantID: "t1", RecipientID: "r1",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 0, email.callCount())
	stored, err := msgs.Get(context.Background(), msgID)
	require.NoError(t, err)
	assert.Equal(t, domain.MessageStatusQueued, stored.Status)
	quota.AssertExpectations(t)
}

func TestSend_UrgentBypassesQueue(t *testing.T) {
	tpl := &mockTemplateStore{}
	tpl.On("Get", mock.Anything, "tpl1").Return(emailTemplate(domain.PriorityNormal), nil)
	rec := &mockRecipientDir{}
	rec.On("Get", mock.Anything, "r1").Return(annaRecipient(), nil)
	quota := &mockQuota{}
	allowAll(quota)
	msgs := newFakeMessageStore()
	q := NewMemoryQueue()
	email := &scriptedSender{channel: domain.ChannelEmail}

	svc := newNotifService(tpl, msgs, rec, quota, q, email)
	msgID, err := svc.Send(context.Background(), domain.SendNotificationRequest{
		TemplateID: "tpl1", TenantID: "t1", RecipientID: "r1",
		Priority: domain.PriorityUrgent,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 1, email.callCount())
	stored, _ := msgs.Get(context.Background(), msgID)
	assert.Equal(t, domain.MessageStatusSent, stored.Status)
	require.Len(t, stored.Attempts, 1)
	assert.Equal(t, domain.MessageStatusSent, stored.Attempts[0].Status)
}

func TestSend_RendersVariablesAndKeepsUnresolvedVerbatim(t *testing.T) {
	tpl := &mockTemplateStore{}
	tpl.On("Get", mock.Anything, "tpl1").Return(emailTemplate(domain.PriorityNormal), nil)
	rec := &mockRecipientDir{}
	rec.On("Get", mock.Anything, "r1").Return(annaRecipient(), nil)
	quota := &mockQuota{}
	allowAll(quota)
	msgs := newFakeMessageStore()

	svc := newNotifService(tpl, msgs, rec, quota, NewMemoryQueue())
	msgID, err := svc.Send(context.Background(), domain.SendNotificationRequest{
		TemplateID: "tpl1", TenantID: "t1", RecipientID: "r1",
		Variables: map[string]string{"name": "Anna"},
	})

	require.NoError(t, err)
	stored, _ := msgs.Get(context.Background(), msgID)
	assert.Equal(t, "Hi Anna, payment of {{amount}} is due", stored.Content[domain.ChannelEmail].Body)
}

func TestSend_QuotaDenied(t *testing.T) {
	tpl := &mockTemplateStore{}
	tpl.On("Get", mock.Anything, "tpl1").Return(emailTemplate(domain.PriorityNormal), nil)
	rec := &mockRecipientDir{}
	rec.On("Get", mock.Anything, "r1").Return(annaRecipient(), nil)
	quota := &mockQuota{}
	quota.On("ReserveQuota", mock.Anything, "t1", domain.ResourceNotifications, int64(1)).
		Return(domain.QuotaResult{Allowed: false, Message: "quota exceeded for maxNotificationsPerMonth"}, nil)
	msgs := newFakeMessageStore()

	svc := newNotifService(tpl, msgs, rec, quota, NewMemoryQueue())
	_, err := svc.Send(context.Background(), domain.SendNotificationRequest{
		TemplateID: "tpl1", TenantID: "t1", RecipientID: "r1",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	assert.Equal(t, 0, msgs.count())
}

func TestSend_ConsentRequiredAndOptedOut(t *testing.T) {
	tmpl := emailTemplate(domain.PriorityNormal)
	tmpl.Compliance.RequireConsent = true
	tpl := &mockTemplateStore{}
	tpl.On("Get", mock.Anything, "tpl1").Return(tmpl, nil)
	rec := &mockRecipientDir{}
	optedOut := annaRecipient()
	optedOut.OptedOut = true
	rec.On("Get", mock.Anything, "r1").Return(optedOut, nil)

	svc := newNotifService(tpl, newFakeMessageStore(), rec, nil, NewMemoryQueue())
	_, err := svc.Send(context.Background(), domain.SendNotificationRequest{
		TemplateID: "tpl1", TenantID: "t1", RecipientID: "r1",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestSend_ChannelOverrideSubset(t *testing.T) {
	tmpl := emailTemplate(domain.PriorityNormal)
	tmpl.Channels = []string{domain.ChannelEmail, domain.ChannelInApp}
	tmpl.Content[domain.ChannelInApp] = domain.ChannelContent{Body: "in-app body"}
	tpl := &mockTemplateStore{}
	tpl.On("Get", mock.Anything, "tpl1").Return(tmpl, nil)
	rec := &mockRecipientDir{}
	rec.On("Get", mock.Anything, "r1").Return(annaRecipient(), nil)
	quota := &mockQuota{}
	allowAll(quota)
	msgs := newFakeMessageStore()

	svc := newNotifService(tpl, msgs, rec, quota, NewMemoryQueue())
	msgID, err := svc.Send(context.Background(), domain.SendNotificationRequest{
		TemplateID: "tpl1", TenantID: "t1", RecipientID: "r1",
		Channels: []string{domain.ChannelInApp},
	})

	require.NoError(t, err)
	stored, _ := msgs.Get(context.Background(), msgID)
	assert.Equal(t, []string{domain.ChannelInApp}, stored.Channels)
	_, hasEmail := stored.Content[domain.ChannelEmail]
	assert.False(t, hasEmail)
}

func TestSend_ValidationFailure(t *testing.T) {
	svc := newNotifService(&mockTemplateStore{}, newFakeMessageStore(), &mockRecipientDir{}, nil, NewMemoryQueue())
	_, err := svc.Send(context.Background(), domain.SendNotificationRequest{TemplateID: "tpl1"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSend_TemplateFromAnotherTenantIsNotFound(t *testing.T) {
	foreign := emailTemplate(domain.PriorityNormal)
	foreign.TenantID = "other"
	tpl := &mockTemplateStore{}
	tpl.On("Get", mock.Anything, "tpl1").Return(foreign, nil)
	rec := &mockRecipientDir{}
	rec.On("Get", mock.Anything, "r1").Return(annaRecipient(), nil)
	quota := &mockQuota{}
	msgs := newFakeMessageStore()

	svc := newNotifService(tpl, msgs, rec, quota, NewMemoryQueue())
	_, err := svc.Send(context.Background(), domain.SendNotificationRequest{
		TemplateID: "tpl1", TenantID: "t1", RecipientID: "r1",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, 0, msgs.count())
	quota.AssertNotCalled(t, "ReserveQuota", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_RecipientFromAnotherTenantIsNotFound(t *testing.T) {
	tpl := &mockTemplateStore{}
	tpl.On("Get", mock.Anything, "tpl1").Return(emailTemplate(domain.PriorityNormal), nil)
	poached := annaRecipient()
	poached.TenantID = "other"
	rec := &mockRecipientDir{}
	rec.On("Get", mock.Anything, "r1").Return(poached, nil)
	quota := &mockQuota{}
	msgs := newFakeMessageStore()

	svc := newNotifService(tpl, msgs, rec, quota, NewMemoryQueue())
	_, err := svc.Send(context.Background(), domain.SendNotificationRequest{
		TemplateID: "tpl1", TenantID: "t1", RecipientID: "r1",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, 0, msgs.count())
	quota.AssertNotCalled(t, "ReserveQuota", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- SendBulk ---

func TestSendBulk_PartialFailure(t *testing.T) {
	tpl := &mockTemplateStore{}
	tpl.On("Get", mock.Anything, "tpl1").Return(emailTemplate(domain.PriorityNormal), nil)
	rec := &mockRecipientDir{}
	rec.On("Get", mock.Anything, "r1").Return(annaRecipient(), nil)
	rec.On("Get", mock.Anything, "r2").Return(nil, domain.ErrNotFound)
	r3 := annaRecipient()
	r3.RecipientID = "r3"
	rec.On("Get", mock.Anything, "r3").Return(r3, nil)
	quota := &mockQuota{}
	allowAll(quota)
	msgs := newFakeMessageStore()

	svc := newNotifService(tpl, msgs, rec, quota, NewMemoryQueue())
	result, err := svc.SendBulk(context.Background(), domain.SendBulkRequest{
		TemplateID: "tpl1", TenantID: "t1",
		RecipientIDs: []string{"r1", "r2", "r3"},
	})

	require.NoError(t, err)
	assert.Len(t, result.MessageIDs, 2)
	assert.Equal(t, []string{"r2"}, result.Failed)
	assert.Equal(t, 2, msgs.count())
}

func TestSendBulk_SegmentationFiltersSilently(t *testing.T) {
	tpl := &mockTemplateStore{}
	tpl.On("Get", mock.Anything, "tpl1").Return(emailTemplate(domain.PriorityNormal), nil)
	buyer := annaRecipient()
	buyer.UserType = "buyer"
	landlord := annaRecipient()
	landlord.RecipientID = "r2"
	landlord.UserType = "landlord"
	rec := &mockRecipientDir{}
	rec.On("Get", mock.Anything, "r1").Return(buyer, nil)
	rec.On("Get", mock.Anything, "r2").Return(landlord, nil)
	quota := &mockQuota{}
	allowAll(quota)

	svc := newNotifService(tpl, newFakeMessageStore(), rec, quota, NewMemoryQueue())
	result, err := svc.SendBulk(context.Background(), domain.SendBulkRequest{
		TemplateID: "tpl1", TenantID: "t1",
		RecipientIDs: []string{"r1", "r2"},
		Segmentation: &domain.Segmentation{UserTypes: []string{"buyer"}},
	})

	require.NoError(t, err)
	assert.Len(t, result.MessageIDs, 1)
	assert.Empty(t, result.Failed)
}

func TestSendBulk_EmptyRecipients(t *testing.T) {
	svc := newNotifService(&mockTemplateStore{}, newFakeMessageStore(), &mockRecipientDir{}, nil, NewMemoryQueue())
	_, err := svc.SendBulk(context.Background(), domain.SendBulkRequest{
		TemplateID: "tpl1", TenantID: "t1",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

// --- Processor ---

func queuedMessage(id string, policy domain.DeliveryPolicy, channels ...string) *domain.NotificationMessage {
	content := make(map[string]domain.ChannelContent, len(channels))
	for _, ch := range channels {
		content[ch] = domain.ChannelContent{Subject: "s", Body: "b"}
	}
	return &domain.NotificationMessage{
		MessageID: id,
		TenantID:  "t1",
		Recipient: *annaRecipient(),
		Content:   content,
		Channels:  channels,
		Priority:  domain.PriorityNormal,
		Status:    domain.MessageStatusQueued,
		Delivery:  policy,
		CreatedAt: time.Now().UTC(),
	}
}

func TestProcessor_ExpiredFailsWithoutAttempt(t *testing.T) {
	msgs := newFakeMessageStore()
	q := NewMemoryQueue()
	email := &scriptedSender{channel: domain.ChannelEmail}
	svc := newNotifService(&mockTemplateStore{}, msgs, &mockRecipientDir{}, nil, q, email)

	msg := queuedMessage("m1", domain.DeliveryPolicy{}, domain.ChannelEmail)
	past := time.Now().UTC().Add(-time.Hour)
	msg.ExpiresAt = &past
	require.NoError(t, msgs.Put(context.Background(), msg))
	require.NoError(t, q.Enqueue(context.Background(), "m1"))

	NewProcessor(svc, time.Second, 10).Drain(context.Background())

	stored, _ := msgs.Get(context.Background(), "m1")
	assert.Equal(t, domain.MessageStatusFailed, stored.Status)
	assert.Empty(t, stored.Attempts)
	assert.Equal(t, 0, email.callCount())
}

func TestProcessor_FutureScheduledIsRequeued(t *testing.T) {
	msgs := newFakeMessageStore()
	q := NewMemoryQueue()
	email := &scriptedSender{channel: domain.ChannelEmail}
	svc := newNotifService(&mockTemplateStore{}, msgs, &mockRecipientDir{}, nil, q, email)

	msg := queuedMessage("m1", domain.DeliveryPolicy{}, domain.ChannelEmail)
	future := time.Now().UTC().Add(time.Hour)
	msg.ScheduledAt = &future
	require.NoError(t, msgs.Put(context.Background(), msg))
	require.NoError(t, q.Enqueue(context.Background(), "m1"))

	NewProcessor(svc, time.Second, 10).Drain(context.Background())

	assert.Equal(t, 1, q.Len())
	stored, _ := msgs.Get(context.Background(), "m1")
	assert.Equal(t, domain.MessageStatusQueued, stored.Status)
	assert.Empty(t, stored.Attempts)
}

func TestProcessor_RetriesPerDeliveryPolicy(t *testing.T) {
	msgs := newFakeMessageStore()
	q := NewMemoryQueue()
	email := &scriptedSender{channel: domain.ChannelEmail, failures: alwaysFail}
	svc := newNotifService(&mockTemplateStore{}, msgs, &mockRecipientDir{}, nil, q, email)

	msg := queuedMessage("m1", domain.DeliveryPolicy{RetryAttempts: 2}, domain.ChannelEmail)
	require.NoError(t, msgs.Put(context.Background(), msg))
	require.NoError(t, q.Enqueue(context.Background(), "m1"))

	NewProcessor(svc, time.Second, 10).Drain(context.Background())

	stored, _ := msgs.Get(context.Background(), "m1")
	assert.Equal(t, domain.MessageStatusFailed, stored.Status)
	assert.Len(t, stored.Attempts, 3)
	assert.Equal(t, 3, email.callCount())
}

func TestProcessor_AnyChannelSuccessMeansSent(t *testing.T) {
	msgs := newFakeMessageStore()
	q := NewMemoryQueue()
	email := &scriptedSender{channel: domain.ChannelEmail, failures: alwaysFail}
	svc := newNotifService(&mockTemplateStore{}, msgs, &mockRecipientDir{}, nil, q, email, &InAppSender{})

	msg := queuedMessage("m1", domain.DeliveryPolicy{}, domain.ChannelEmail, domain.ChannelInApp)
	require.NoError(t, msgs.Put(context.Background(), msg))
	require.NoError(t, q.Enqueue(context.Background(), "m1"))

	NewProcessor(svc, time.Second, 10).Drain(context.Background())

	stored, _ := msgs.Get(context.Background(), "m1")
	assert.Equal(t, domain.MessageStatusSent, stored.Status)
	assert.Len(t, stored.Attempts, 2)
}

func TestProcessor_MissingSenderRecordsFailedAttempt(t *testing.T) {
	msgs := newFakeMessageStore()
	q := NewMemoryQueue()
	svc := newNotifService(&mockTemplateStore{}, msgs, &mockRecipientDir{}, nil, q)

	msg := queuedMessage("m1", domain.DeliveryPolicy{}, domain.ChannelSMS)
	require.NoError(t, msgs.Put(context.Background(), msg))
	require.NoError(t, q.Enqueue(context.Background(), "m1"))

	NewProcessor(svc, time.Second, 10).Drain(context.Background())

	stored, _ := msgs.Get(context.Background(), "m1")
	assert.Equal(t, domain.MessageStatusFailed, stored.Status)
	require.Len(t, stored.Attempts, 1)
	assert.Contains(t, stored.Attempts[0].Error, "no sender registered")
}

// --- ExternalStatusUpdate ---

func TestExternalStatusUpdate_SetsEngagement(t *testing.T) {
	msgs := newFakeMessageStore()
	msg := queuedMessage("m1", domain.DeliveryPolicy{}, domain.ChannelEmail)
	msg.Status = domain.MessageStatusSent
	require.NoError(t, msgs.Put(context.Background(), msg))

	svc := newNotifService(&mockTemplateStore{}, msgs, &mockRecipientDir{}, nil, NewMemoryQueue())
	require.NoError(t, svc.ExternalStatusUpdate(context.Background(), "m1", domain.MessageStatusRead))

	stored, _ := msgs.Get(context.Background(), "m1")
	assert.Equal(t, domain.MessageStatusRead, stored.Status)
	assert.NotNil(t, stored.Engagement.OpenedAt)
}

func TestExternalStatusUpdate_TerminalStatusRejected(t *testing.T) {
	msgs := newFakeMessageStore()
	msg := queuedMessage("m1", domain.DeliveryPolicy{}, domain.ChannelEmail)
	msg.Status = domain.MessageStatusBounced
	require.NoError(t, msgs.Put(context.Background(), msg))

	svc := newNotifService(&mockTemplateStore{}, msgs, &mockRecipientDir{}, nil, NewMemoryQueue())
	err := svc.ExternalStatusUpdate(context.Background(), "m1", domain.MessageStatusDelivered)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestExternalStatusUpdate_InvalidStatus(t *testing.T) {
	svc := newNotifService(&mockTemplateStore{}, newFakeMessageStore(), &mockRecipientDir{}, nil, NewMemoryQueue())
	err := svc.ExternalStatusUpdate(context.Background(), "m1", "teleported")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

// --- Analytics ---

func TestAnalytics_FunnelAndChannelStats(t *testing.T) {
	msgs := newFakeMessageStore()
	seed := func(id, status string, attempts ...domain.DeliveryAttempt) {
		m := queuedMessage(id, domain.DeliveryPolicy{}, domain.ChannelEmail)
		m.Status = status
		m.Attempts = attempts
		require.NoError(t, msgs.Put(context.Background(), m))
	}
	seed("m1", domain.MessageStatusSent, domain.DeliveryAttempt{Channel: domain.ChannelEmail, Status: domain.MessageStatusSent})
	seed("m2", domain.MessageStatusRead, domain.DeliveryAttempt{Channel: domain.ChannelEmail, Status: domain.MessageStatusSent})
	seed("m3", domain.MessageStatusFailed,
		domain.DeliveryAttempt{Channel: domain.ChannelEmail, Status: domain.MessageStatusFailed},
		domain.DeliveryAttempt{Channel: domain.ChannelEmail, Status: domain.MessageStatusFailed})

	svc := newNotifService(&mockTemplateStore{}, msgs, &mockRecipientDir{}, nil, NewMemoryQueue())
	report, err := svc.Analytics(context.Background(), AnalyticsParams{
		TenantID: "t1",
		From:     time.Now().UTC().Add(-time.Hour),
		To:       time.Now().UTC(),
	})

	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Read)
	assert.Equal(t, 1, report.Failed)
	assert.InDelta(t, 0.5, report.ReadRate, 1e-9)
	email := report.ByChannel[domain.ChannelEmail]
	assert.Equal(t, 4, email.Attempts)
	assert.Equal(t, 2, email.Succeeded)
	assert.InDelta(t, 0.5, email.Rate, 1e-9)
}
