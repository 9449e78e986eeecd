package domain

import "time"

// Tenant status lifecycle. Tenants are never hard-deleted; Terminated is terminal.
const (
	TenantStatusPendingActivation = "pending_activation"
	TenantStatusActive            = "active"
	TenantStatusSuspended         = "suspended"
	TenantStatusTerminated        = "terminated"
)

// Organization types served by the platform.
const (
	TenantTypeDeveloper = "developer"
	TenantTypeAgent     = "agent"
	TenantTypeSolicitor = "solicitor"
	TenantTypeSurveyor  = "surveyor"
	TenantTypeInvestor  = "investor"
)

type Tenant struct {
	TenantID         string         `json:"id" dynamodbav:"tenant_id"`
	Name             string         `json:"name" dynamodbav:"name"`
	DisplayName      string         `json:"display_name" dynamodbav:"display_name"`
	Type             string         `json:"type" dynamodbav:"type"`
	SubscriptionTier string         `json:"subscription_tier" dynamodbav:"subscription_tier"`
	Status           string         `json:"status" dynamodbav:"status"`
	ContactEmail     string         `json:"contact_email" dynamodbav:"contact_email"`
	BillingEmail     string         `json:"billing_email" dynamodbav:"billing_email"`
	Subdomain        string         `json:"subdomain" dynamodbav:"subdomain"`
	CustomDomain     string         `json:"custom_domain,omitempty" dynamodbav:"custom_domain"`
	APIKey           string         `json:"-" dynamodbav:"api_key"`
	WebhookEndpoint  string         `json:"webhook_endpoint,omitempty" dynamodbav:"webhook_endpoint"`
	Quota            ResourceQuota  `json:"quota" dynamodbav:"quota"`
	Usage            Usage          `json:"usage" dynamodbav:"usage"`
	Security         SecurityPolicy `json:"security" dynamodbav:"security"`
	Branding         Branding       `json:"branding" dynamodbav:"branding"`
	FeatureFlags     []string       `json:"feature_flags,omitempty" dynamodbav:"feature_flags"`
	LastActivityAt   *time.Time     `json:"last_activity_at,omitempty" dynamodbav:"last_activity_at"`
	CreatedAt        time.Time      `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time      `json:"updated" dynamodbav:"updated_at"`
}

// SecurityPolicy holds per-tenant security configuration.
type SecurityPolicy struct {
	RequireMFA        bool     `json:"require_mfa" dynamodbav:"require_mfa"`
	PasswordMinLength int      `json:"password_min_length" dynamodbav:"password_min_length"`
	SessionTimeoutMin int      `json:"session_timeout_min" dynamodbav:"session_timeout_min"`
	AllowedIPs        []string `json:"allowed_ips,omitempty" dynamodbav:"allowed_ips"`
	DataResidency     string   `json:"data_residency,omitempty" dynamodbav:"data_residency"`
}

// Branding holds white-label presentation settings.
type Branding struct {
	PrimaryColor   string `json:"primary_color" dynamodbav:"primary_color"`
	SecondaryColor string `json:"secondary_color" dynamodbav:"secondary_color"`
	LogoURL        string `json:"logo_url,omitempty" dynamodbav:"logo_url"`
	LogoKey        string `json:"-" dynamodbav:"logo_key"`
	CompanyTagline string `json:"company_tagline,omitempty" dynamodbav:"company_tagline"`
}

type CreateTenantRequest struct {
	Name             string   `json:"name" validate:"required"`
	DisplayName      string   `json:"display_name" validate:"required"`
	Type             string   `json:"type" validate:"required,oneof=developer agent solicitor surveyor investor"`
	SubscriptionTier string   `json:"subscription_tier" validate:"required,oneof=starter professional enterprise premium platform_partner"`
	ContactEmail     string   `json:"contact_email" validate:"required,email"`
	BillingEmail     string   `json:"billing_email" validate:"omitempty,email"`
	Subdomain        string   `json:"subdomain" validate:"required,hostname_rfc1123"`
	CustomDomain     string   `json:"custom_domain" validate:"omitempty,fqdn"`
	WebhookEndpoint  string   `json:"webhook_endpoint" validate:"omitempty,url"`
	PrimaryColor     string   `json:"primary_color" validate:"omitempty,hexcolor"`
	SecondaryColor   string   `json:"secondary_color" validate:"omitempty,hexcolor"`
	AllowedIPs       []string `json:"allowed_ips" validate:"omitempty,dive,ip"`
	DataResidency    string   `json:"data_residency" validate:"omitempty,oneof=eu uk us apac"`
	AdminEmail       string   `json:"admin_email" validate:"required,email"`
	AdminPassword    string   `json:"admin_password" validate:"required,min=8,max=72"`
}

type UpdateTenantRequest struct {
	DisplayName     *string        `json:"display_name"`
	ContactEmail    *string        `json:"contact_email" validate:"omitempty,email"`
	BillingEmail    *string        `json:"billing_email" validate:"omitempty,email"`
	CustomDomain    *string        `json:"custom_domain" validate:"omitempty,fqdn"`
	WebhookEndpoint *string        `json:"webhook_endpoint" validate:"omitempty,url"`
	PrimaryColor    *string        `json:"primary_color" validate:"omitempty,hexcolor"`
	SecondaryColor  *string        `json:"secondary_color" validate:"omitempty,hexcolor"`
	FeatureFlags    []string       `json:"feature_flags"`
	Quota           *ResourceQuota `json:"quota"` // administrative quota override
}
