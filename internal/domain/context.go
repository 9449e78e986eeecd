package domain

// TenantContext is the per-request resolution of "who is this traffic for".
// It is built by the tenant service for each inbound request and discarded
// afterwards; it is never persisted.
type TenantContext struct {
	TenantID     string
	Tenant       *Tenant
	UserID       string
	Roles        []string
	Permissions  []string
	EnforceQuota bool
	RateLimit    RateLimitPolicy
}

// HasPermission reports whether the resolved user holds the given permission.
func (c *TenantContext) HasPermission(perm string) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
