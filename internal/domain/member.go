package domain

import "time"

// Member roles within a tenant.
const (
	MemberRoleAdmin  = "admin"
	MemberRoleEditor = "editor"
	MemberRoleViewer = "viewer"
)

// TenantMember associates a platform user with a tenant, carrying the roles
// and permissions resolved into a TenantContext.
type TenantMember struct {
	TenantID     string    `json:"tenant_id" dynamodbav:"tenant_id"`
	UserID       string    `json:"user_id" dynamodbav:"user_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	Roles        []string  `json:"roles" dynamodbav:"roles"`
	Permissions  []string  `json:"permissions" dynamodbav:"permissions"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Enable       bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// PermissionsForRole expands a member role into its permission set.
func PermissionsForRole(role string) []string {
	switch role {
	case MemberRoleAdmin:
		return []string{"tenant:read", "tenant:write", "members:manage", "notifications:send", "analytics:read"}
	case MemberRoleEditor:
		return []string{"tenant:read", "notifications:send", "analytics:read"}
	case MemberRoleViewer:
		return []string{"tenant:read", "analytics:read"}
	}
	return nil
}
