package domain

// Subscription tiers, ordered cheapest to richest.
const (
	TierStarter         = "starter"
	TierProfessional    = "professional"
	TierEnterprise      = "enterprise"
	TierPremium         = "premium"
	TierPlatformPartner = "platform_partner"
)

// Unlimited is the quota sentinel: a limit of -1 always passes admission checks.
const Unlimited int64 = -1

// Resource keys tracked against a tenant's quota.
const (
	ResourceProjects        = "maxProjects"
	ResourceUnitsPerProject = "maxUnitsPerProject"
	ResourcePackages        = "maxPackages"
	ResourceAPICallsMonth   = "maxAPICallsPerMonth"
	ResourceStorageMB       = "maxStorageMB"
	ResourceUsers           = "maxUsers"
	ResourceCustomDomains   = "maxCustomDomains"
	ResourceNotifications   = "maxNotificationsPerMonth"
)

// ResourceQuota is the fixed set of per-resource ceilings assigned at tenant
// creation from the subscription tier template. Read-mostly; only an
// administrative override mutates it afterwards.
type ResourceQuota struct {
	MaxProjects              int64 `json:"max_projects" dynamodbav:"max_projects"`
	MaxUnitsPerProject       int64 `json:"max_units_per_project" dynamodbav:"max_units_per_project"`
	MaxPackages              int64 `json:"max_packages" dynamodbav:"max_packages"`
	MaxAPICallsPerMonth      int64 `json:"max_api_calls_per_month" dynamodbav:"max_api_calls_per_month"`
	MaxStorageMB             int64 `json:"max_storage_mb" dynamodbav:"max_storage_mb"`
	MaxUsers                 int64 `json:"max_users" dynamodbav:"max_users"`
	MaxCustomDomains         int64 `json:"max_custom_domains" dynamodbav:"max_custom_domains"`
	MaxNotificationsPerMonth int64 `json:"max_notifications_per_month" dynamodbav:"max_notifications_per_month"`
	AnalyticsRetentionDays   int64 `json:"analytics_retention_days" dynamodbav:"analytics_retention_days"`
	CustomBranding           bool  `json:"custom_branding" dynamodbav:"custom_branding"`
	WhiteLabel               bool  `json:"white_label" dynamodbav:"white_label"`
	APIIntegrations          bool  `json:"api_integrations" dynamodbav:"api_integrations"`
}

// Usage mirrors ResourceQuota's numeric fields with live counters.
type Usage struct {
	Projects        int64 `json:"projects" dynamodbav:"projects"`
	UnitsPerProject int64 `json:"units_per_project" dynamodbav:"units_per_project"`
	Packages        int64 `json:"packages" dynamodbav:"packages"`
	APICallsMonth   int64 `json:"api_calls_month" dynamodbav:"api_calls_month"`
	StorageMB       int64 `json:"storage_mb" dynamodbav:"storage_mb"`
	Users           int64 `json:"users" dynamodbav:"users"`
	CustomDomains   int64 `json:"custom_domains" dynamodbav:"custom_domains"`
	Notifications   int64 `json:"notifications" dynamodbav:"notifications"`
}

// Limit returns the ceiling for a resource key, or false for unknown keys.
func (q ResourceQuota) Limit(resource string) (int64, bool) {
	switch resource {
	case ResourceProjects:
		return q.MaxProjects, true
	case ResourceUnitsPerProject:
		return q.MaxUnitsPerProject, true
	case ResourcePackages:
		return q.MaxPackages, true
	case ResourceAPICallsMonth:
		return q.MaxAPICallsPerMonth, true
	case ResourceStorageMB:
		return q.MaxStorageMB, true
	case ResourceUsers:
		return q.MaxUsers, true
	case ResourceCustomDomains:
		return q.MaxCustomDomains, true
	case ResourceNotifications:
		return q.MaxNotificationsPerMonth, true
	}
	return 0, false
}

// Current returns the live counter for a resource key, or false for unknown keys.
func (u Usage) Current(resource string) (int64, bool) {
	switch resource {
	case ResourceProjects:
		return u.Projects, true
	case ResourceUnitsPerProject:
		return u.UnitsPerProject, true
	case ResourcePackages:
		return u.Packages, true
	case ResourceAPICallsMonth:
		return u.APICallsMonth, true
	case ResourceStorageMB:
		return u.StorageMB, true
	case ResourceUsers:
		return u.Users, true
	case ResourceCustomDomains:
		return u.CustomDomains, true
	case ResourceNotifications:
		return u.Notifications, true
	}
	return 0, false
}

// Set stores a counter value for a resource key. Unknown keys are ignored.
func (u *Usage) Set(resource string, value int64) {
	switch resource {
	case ResourceProjects:
		u.Projects = value
	case ResourceUnitsPerProject:
		u.UnitsPerProject = value
	case ResourcePackages:
		u.Packages = value
	case ResourceAPICallsMonth:
		u.APICallsMonth = value
	case ResourceStorageMB:
		u.StorageMB = value
	case ResourceUsers:
		u.Users = value
	case ResourceCustomDomains:
		u.CustomDomains = value
	case ResourceNotifications:
		u.Notifications = value
	}
}

// QuotaResult is the structured answer to an admission-control question.
// Denial is a value, not an error, so normal control flow can react to it.
type QuotaResult struct {
	Allowed   bool   `json:"allowed"`
	Remaining int64  `json:"remaining"`
	Message   string `json:"message,omitempty"`
}

// QuotaTemplate returns the default quota for a subscription tier. Unknown
// tiers fall back to starter.
func QuotaTemplate(tier string) ResourceQuota {
	switch tier {
	case TierProfessional:
		return ResourceQuota{
			MaxProjects: 15, MaxUnitsPerProject: 200, MaxPackages: 50,
			MaxAPICallsPerMonth: 100_000, MaxStorageMB: 20_480, MaxUsers: 25,
			MaxCustomDomains: 1, MaxNotificationsPerMonth: 10_000,
			AnalyticsRetentionDays: 90, CustomBranding: true,
		}
	case TierEnterprise:
		return ResourceQuota{
			MaxProjects: 50, MaxUnitsPerProject: 500, MaxPackages: 200,
			MaxAPICallsPerMonth: 500_000, MaxStorageMB: 102_400, MaxUsers: 100,
			MaxCustomDomains: 3, MaxNotificationsPerMonth: 50_000,
			AnalyticsRetentionDays: 365, CustomBranding: true, APIIntegrations: true,
		}
	case TierPremium:
		return ResourceQuota{
			MaxProjects: 150, MaxUnitsPerProject: 1000, MaxPackages: 500,
			MaxAPICallsPerMonth: 2_000_000, MaxStorageMB: 512_000, MaxUsers: 500,
			MaxCustomDomains: 10, MaxNotificationsPerMonth: 250_000,
			AnalyticsRetentionDays: 730, CustomBranding: true, WhiteLabel: true, APIIntegrations: true,
		}
	case TierPlatformPartner:
		return ResourceQuota{
			MaxProjects: Unlimited, MaxUnitsPerProject: Unlimited, MaxPackages: Unlimited,
			MaxAPICallsPerMonth: Unlimited, MaxStorageMB: Unlimited, MaxUsers: Unlimited,
			MaxCustomDomains: Unlimited, MaxNotificationsPerMonth: Unlimited,
			AnalyticsRetentionDays: Unlimited, CustomBranding: true, WhiteLabel: true, APIIntegrations: true,
		}
	default:
		return ResourceQuota{
			MaxProjects: 5, MaxUnitsPerProject: 50, MaxPackages: 10,
			MaxAPICallsPerMonth: 10_000, MaxStorageMB: 2_048, MaxUsers: 5,
			MaxCustomDomains: 0, MaxNotificationsPerMonth: 1_000,
			AnalyticsRetentionDays: 30,
		}
	}
}

// RateLimitPolicy is the per-tenant request throttle for a subscription tier.
type RateLimitPolicy struct {
	RequestsPerSecond float64
	Burst             int
}

// RateLimitForTier returns the request throttle applied to a tenant's traffic.
func RateLimitForTier(tier string) RateLimitPolicy {
	switch tier {
	case TierProfessional:
		return RateLimitPolicy{RequestsPerSecond: 25, Burst: 50}
	case TierEnterprise:
		return RateLimitPolicy{RequestsPerSecond: 100, Burst: 200}
	case TierPremium:
		return RateLimitPolicy{RequestsPerSecond: 250, Burst: 500}
	case TierPlatformPartner:
		return RateLimitPolicy{RequestsPerSecond: 1000, Burst: 2000}
	default:
		return RateLimitPolicy{RequestsPerSecond: 5, Burst: 10}
	}
}
