package domain

import "time"

// Audit event categories and risk levels.
const (
	AuditCategoryTenantManagement = "tenant_management"
	AuditCategoryQuota            = "quota_enforcement"
	AuditCategoryNotification     = "notification_delivery"
	AuditCategoryAuthentication   = "authentication"

	AuditRiskLow    = "low"
	AuditRiskMedium = "medium"
	AuditRiskHigh   = "high"
)

// AuditEvent is the structured record emitted for every administrative action.
type AuditEvent struct {
	EventID    string          `json:"id" dynamodbav:"event_id"`
	EventType  string          `json:"event_type" dynamodbav:"event_type"`
	RiskLevel  string          `json:"risk_level" dynamodbav:"risk_level"`
	Category   string          `json:"category" dynamodbav:"category"`
	Actor      string          `json:"actor" dynamodbav:"actor"`
	Target     string          `json:"target" dynamodbav:"target"`
	Event      AuditDetail     `json:"event" dynamodbav:"event"`
	Compliance AuditCompliance `json:"compliance" dynamodbav:"compliance"`
	CreatedAt  time.Time       `json:"created" dynamodbav:"created_at"`
}

// AuditDetail describes what happened.
type AuditDetail struct {
	Action      string            `json:"action" dynamodbav:"action"`
	Description string            `json:"description" dynamodbav:"description"`
	Outcome     string            `json:"outcome" dynamodbav:"outcome"` // success | denied | failure
	Metadata    map[string]string `json:"metadata,omitempty" dynamodbav:"metadata"`
}

// AuditCompliance carries retention and framework tagging for the event.
type AuditCompliance struct {
	Frameworks      []string `json:"frameworks" dynamodbav:"frameworks"` // e.g. GDPR, ISO27001
	RetentionPeriod string   `json:"retention_period" dynamodbav:"retention_period"`
	SensitiveData   bool     `json:"sensitive_data" dynamodbav:"sensitive_data"`
	AuditRequired   bool     `json:"audit_required" dynamodbav:"audit_required"`
}
