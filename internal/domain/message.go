package domain

import "time"

// NotificationMessage status machine: pending → queued → sent|failed.
// Delivery-provider callbacks may later move sent messages through
// delivered → read/clicked → converted, or to bounced/unsubscribed/spam.
const (
	MessageStatusPending      = "pending"
	MessageStatusQueued       = "queued"
	MessageStatusSent         = "sent"
	MessageStatusFailed       = "failed"
	MessageStatusDelivered    = "delivered"
	MessageStatusRead         = "read"
	MessageStatusClicked      = "clicked"
	MessageStatusConverted    = "converted"
	MessageStatusBounced      = "bounced"
	MessageStatusUnsubscribed = "unsubscribed"
	MessageStatusSpam         = "spam"
)

// TerminalMessageStatus reports whether a status admits no further transitions.
func TerminalMessageStatus(status string) bool {
	switch status {
	case MessageStatusFailed, MessageStatusBounced, MessageStatusSpam, MessageStatusUnsubscribed:
		return true
	}
	return false
}

// Recipient is the contact snapshot taken when a message is created, so later
// profile edits do not change what was sent.
type Recipient struct {
	RecipientID string   `json:"id" dynamodbav:"recipient_id"`
	TenantID    string   `json:"tenant_id" dynamodbav:"tenant_id"`
	Email       string   `json:"email,omitempty" dynamodbav:"email"`
	Phone       string   `json:"phone,omitempty" dynamodbav:"phone"`
	PushToken   string   `json:"push_token,omitempty" dynamodbav:"push_token"`
	Locale      string   `json:"locale,omitempty" dynamodbav:"locale"`
	Timezone    string   `json:"timezone,omitempty" dynamodbav:"timezone"`
	UserType    string   `json:"user_type,omitempty" dynamodbav:"user_type"`
	Region      string   `json:"region,omitempty" dynamodbav:"region"`
	Tags        []string `json:"tags,omitempty" dynamodbav:"tags"`
	OptedOut    bool     `json:"opted_out" dynamodbav:"opted_out"`
}

// DeliveryAttempt records one try to deliver a message through one channel.
// The attempt list is append-only.
type DeliveryAttempt struct {
	Channel     string    `json:"channel" dynamodbav:"channel"`
	AttemptedAt time.Time `json:"attempted_at" dynamodbav:"attempted_at"`
	Status      string    `json:"status" dynamodbav:"status"` // sent | failed
	Error       string    `json:"error,omitempty" dynamodbav:"error"`
	DeliveryID  string    `json:"delivery_id,omitempty" dynamodbav:"delivery_id"`
}

// Engagement tracks post-delivery recipient behaviour reported by providers.
type Engagement struct {
	OpenedAt       *time.Time `json:"opened_at,omitempty" dynamodbav:"opened_at"`
	ClickedAt      *time.Time `json:"clicked_at,omitempty" dynamodbav:"clicked_at"`
	ConvertedAt    *time.Time `json:"converted_at,omitempty" dynamodbav:"converted_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty" dynamodbav:"unsubscribed_at"`
}

// NotificationMessage is one personalized send of a template to one recipient.
// Messages are never deleted; they are the delivery audit record.
type NotificationMessage struct {
	MessageID   string                    `json:"id" dynamodbav:"message_id"`
	TemplateID  string                    `json:"template_id" dynamodbav:"template_id"`
	TenantID    string                    `json:"tenant_id" dynamodbav:"tenant_id"`
	Recipient   Recipient                 `json:"recipient" dynamodbav:"recipient"`
	Content     map[string]ChannelContent `json:"content" dynamodbav:"content"`
	Channels    []string                  `json:"channels" dynamodbav:"channels"`
	Priority    string                    `json:"priority" dynamodbav:"priority"`
	Status      string                    `json:"status" dynamodbav:"status"`
	ScheduledAt *time.Time                `json:"scheduled_at,omitempty" dynamodbav:"scheduled_at"`
	ExpiresAt   *time.Time                `json:"expires_at,omitempty" dynamodbav:"expires_at"`
	Tracking    map[string]string         `json:"tracking,omitempty" dynamodbav:"tracking"`
	Attempts    []DeliveryAttempt         `json:"attempts" dynamodbav:"attempts"`
	Engagement  Engagement                `json:"engagement" dynamodbav:"engagement"`
	Delivery    DeliveryPolicy            `json:"-" dynamodbav:"delivery"`
	CreatedAt   time.Time                 `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time                 `json:"updated" dynamodbav:"updated_at"`
}

type SendNotificationRequest struct {
	TemplateID  string            `json:"template_id" validate:"required"`
	TenantID    string            `json:"tenant_id" validate:"required"`
	RecipientID string            `json:"recipient_id" validate:"required"`
	Variables   map[string]string `json:"variables"`
	Channels    []string          `json:"channels" validate:"omitempty,dive,oneof=email sms push in_app webhook"`
	Priority    string            `json:"priority" validate:"omitempty,oneof=low normal high urgent critical"`
	ScheduledAt *time.Time        `json:"scheduled_at"`
	ExpiresAt   *time.Time        `json:"expires_at"`
	Tracking    map[string]string `json:"tracking"`
}

type SendBulkRequest struct {
	TemplateID   string            `json:"template_id" validate:"required"`
	TenantID     string            `json:"tenant_id" validate:"required"`
	RecipientIDs []string          `json:"recipient_ids" validate:"required,min=1"`
	Variables    map[string]string `json:"variables"`
	Segmentation *Segmentation     `json:"segmentation"`
	ScheduledAt  *time.Time        `json:"scheduled_at"`
	BatchSize    int               `json:"batch_size"`
}

// Segmentation filters bulk recipients before sending.
type Segmentation struct {
	UserTypes []string `json:"user_types,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Regions   []string `json:"regions,omitempty"`
}

// BulkResult reports per-recipient outcomes of a bulk send. One bad recipient
// never blocks the rest of the batch.
type BulkResult struct {
	MessageIDs []string `json:"message_ids"`
	Failed     []string `json:"failed"`
}
