package domain

import "time"

// Notification priorities. Urgent and critical bypass the queue.
const (
	PriorityLow      = "low"
	PriorityNormal   = "normal"
	PriorityHigh     = "high"
	PriorityUrgent   = "urgent"
	PriorityCritical = "critical"
)

// Delivery channels.
const (
	ChannelEmail   = "email"
	ChannelSMS     = "sms"
	ChannelPush    = "push"
	ChannelInApp   = "in_app"
	ChannelWebhook = "webhook"
)

// NotificationTemplate is a versioned definition of a notification type.
// Per-channel content carries {{variable}} placeholders substituted at send time.
type NotificationTemplate struct {
	TemplateID string                    `json:"id" dynamodbav:"template_id"`
	TenantID   string                    `json:"tenant_id" dynamodbav:"tenant_id"`
	Name       string                    `json:"name" dynamodbav:"name"`
	Category   string                    `json:"category" dynamodbav:"category"`
	Channels   []string                  `json:"channels" dynamodbav:"channels"`
	Priority   string                    `json:"priority" dynamodbav:"priority"`
	Content    map[string]ChannelContent `json:"content" dynamodbav:"content"`
	Variables  []TemplateVariable        `json:"variables,omitempty" dynamodbav:"variables"`
	Delivery   DeliveryPolicy            `json:"delivery" dynamodbav:"delivery"`
	Compliance ComplianceFlags           `json:"compliance" dynamodbav:"compliance"`
	Version    int                       `json:"version" dynamodbav:"version"`
	CreatedAt  time.Time                 `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time                 `json:"updated" dynamodbav:"updated_at"`
}

// ChannelContent is the renderable body for one delivery channel.
type ChannelContent struct {
	Subject string `json:"subject,omitempty" dynamodbav:"subject"`
	Body    string `json:"body" dynamodbav:"body"`
}

// TemplateVariable declares a placeholder the template expects.
type TemplateVariable struct {
	Name     string `json:"name" dynamodbav:"name"`
	Type     string `json:"type" dynamodbav:"type"` // string | number | date | currency
	Required bool   `json:"required" dynamodbav:"required"`
}

// DeliveryPolicy controls batching, retries and throttling for a template.
type DeliveryPolicy struct {
	BatchSize      int           `json:"batch_size" dynamodbav:"batch_size"`
	RetryAttempts  int           `json:"retry_attempts" dynamodbav:"retry_attempts"`
	RetryDelay     time.Duration `json:"retry_delay" dynamodbav:"retry_delay"`
	ThrottleDelay  time.Duration `json:"throttle_delay" dynamodbav:"throttle_delay"`
	QuietHoursFrom int           `json:"quiet_hours_from" dynamodbav:"quiet_hours_from"` // hour of day, recipient timezone
	QuietHoursTo   int           `json:"quiet_hours_to" dynamodbav:"quiet_hours_to"`
}

// ComplianceFlags mark regulatory handling requirements for a template.
type ComplianceFlags struct {
	RequireConsent bool `json:"require_consent" dynamodbav:"require_consent"`
	SensitiveData  bool `json:"sensitive_data" dynamodbav:"sensitive_data"`
}

type CreateTemplateRequest struct {
	TenantID   string                    `json:"tenant_id" validate:"required"`
	Name       string                    `json:"name" validate:"required"`
	Category   string                    `json:"category" validate:"required"`
	Channels   []string                  `json:"channels" validate:"required,min=1,dive,oneof=email sms push in_app webhook"`
	Priority   string                    `json:"priority" validate:"required,oneof=low normal high urgent critical"`
	Content    map[string]ChannelContent `json:"content" validate:"required"`
	Variables  []TemplateVariable        `json:"variables"`
	Delivery   DeliveryPolicy            `json:"delivery"`
	Compliance ComplianceFlags           `json:"compliance"`
}
