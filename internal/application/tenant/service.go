package tenant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/propdev-core/internal/domain"
	"github.com/propdev-core/internal/pkg/apikey"
	"github.com/propdev-core/internal/pkg/id"
	"github.com/propdev-core/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldDisplayName     = "display_name"
	fieldContactEmail    = "contact_email"
	fieldBillingEmail    = "billing_email"
	fieldCustomDomain    = "custom_domain"
	fieldWebhookEndpoint = "webhook_endpoint"
	fieldBranding        = "branding"
	fieldFeatureFlags    = "feature_flags"
	fieldQuota           = "quota"
	fieldUsage           = "usage"
	fieldStatus          = "status"
	fieldLastActivityAt  = "last_activity_at"
)

// TenantRequest is the minimal view of an inbound request needed to resolve a
// tenant: a header accessor. The transport layer adapts *http.Request to it.
type TenantRequest interface {
	Header(name string) string
}

type Service interface {
	Create(ctx context.Context, req domain.CreateTenantRequest) (*domain.Tenant, error)
	// Get is cache-first and never returns an error for "not found": the
	// caller receives (nil, nil) and decides what that means.
	Get(ctx context.Context, tenantID string) (*domain.Tenant, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.Tenant, string, error)
	ListMembers(ctx context.Context, tenantID string) ([]domain.TenantMember, error)
	Update(ctx context.Context, tenantID string, req domain.UpdateTenantRequest) (*domain.Tenant, error)
	Activate(ctx context.Context, tenantID string) error
	Suspend(ctx context.Context, tenantID string) error
	Terminate(ctx context.Context, tenantID string) error
	// ResolveContext returns nil when no tenant resolves or the resolved
	// tenant is not active. Callers treat nil as unauthorized, not as an error.
	ResolveContext(ctx context.Context, req TenantRequest, userID string) (*domain.TenantContext, error)
	CheckQuota(ctx context.Context, tenantID, resource string, amount int64) (domain.QuotaResult, error)
	// ReserveQuota checks and consumes in one step under a per-tenant lock,
	// closing the check-then-update race for callers that need admission to
	// imply consumption.
	ReserveQuota(ctx context.Context, tenantID, resource string, amount int64) (domain.QuotaResult, error)
	UpdateUsage(ctx context.Context, tenantID, resource string, delta int64) error
	UploadBrandingLogo(ctx context.Context, tenantID, filename string, r io.Reader, contentType string) (string, error)
	// Authenticate verifies a member's credentials and returns a signed
	// bearer token for the admin surface.
	Authenticate(ctx context.Context, tenantID, email, password string) (string, *domain.TenantMember, error)
}

type tenantStore interface {
	Put(ctx context.Context, t *domain.Tenant) error
	Get(ctx context.Context, tenantID string) (*domain.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Tenant, error)
	Update(ctx context.Context, tenantID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Tenant, string, error)
}

type memberStore interface {
	Put(ctx context.Context, m *domain.TenantMember) error
	Get(ctx context.Context, tenantID, userID string) (*domain.TenantMember, error)
	GetByUser(ctx context.Context, userID string) (*domain.TenantMember, error)
	GetByEmail(ctx context.Context, tenantID, email string) (*domain.TenantMember, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.TenantMember, error)
}

type tokenSigner interface {
	Sign(userID, tenantID, role string) (string, error)
}

type auditSink interface {
	Record(ctx context.Context, ev *domain.AuditEvent) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo    tenantStore
	members memberStore
	audit   auditSink
	assets  objectStore
	tokens  tokenSigner

	cacheMu sync.RWMutex
	cache   map[string]*domain.Tenant

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

type ServiceDeps struct {
	TenantRepo  tenantStore
	MemberRepo  memberStore
	AuditSink   auditSink
	AssetStore  objectStore
	TokenSigner tokenSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:    deps.TenantRepo,
		members: deps.MemberRepo,
		audit:   deps.AuditSink,
		assets:  deps.AssetStore,
		tokens:  deps.TokenSigner,
		cache:   make(map[string]*domain.Tenant),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateTenantRequest) (*domain.Tenant, error) {
	if err := validate.Struct(req); err != nil {
		return nil, &domain.ValidationError{Violations: strings.Split(err.Error(), "; ")}
	}
	switch _, err := s.repo.GetBySubdomain(ctx, req.Subdomain); {
	case err == nil:
		return nil, fmt.Errorf("subdomain already taken: %w", domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("subdomain lookup: %w", err)
	}
	key, err := apikey.New()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := &domain.Tenant{
		TenantID:         id.New(),
		Name:             req.Name,
		DisplayName:      req.DisplayName,
		Type:             req.Type,
		SubscriptionTier: req.SubscriptionTier,
		Status:           domain.TenantStatusPendingActivation,
		ContactEmail:     req.ContactEmail,
		BillingEmail:     req.BillingEmail,
		Subdomain:        req.Subdomain,
		CustomDomain:     req.CustomDomain,
		APIKey:           key,
		WebhookEndpoint:  req.WebhookEndpoint,
		Quota:            domain.QuotaTemplate(req.SubscriptionTier),
		Usage:            domain.Usage{},
		Security: domain.SecurityPolicy{
			PasswordMinLength: 12,
			SessionTimeoutMin: 60,
			AllowedIPs:        req.AllowedIPs,
			DataResidency:     req.DataResidency,
		},
		Branding: domain.Branding{
			PrimaryColor:   req.PrimaryColor,
			SecondaryColor: req.SecondaryColor,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	if err := s.provisionAdmin(ctx, t, req.AdminEmail, req.AdminPassword); err != nil {
		return nil, err
	}
	s.cachePut(t)
	s.recordAudit(ctx, "tenant.created", domain.AuditRiskMedium, domain.AuditCategoryTenantManagement,
		"system", t.TenantID, domain.AuditDetail{
			Action:      "create_tenant",
			Description: fmt.Sprintf("tenant %q created on tier %s", t.Name, t.SubscriptionTier),
			Outcome:     "success",
			Metadata:    map[string]string{"subdomain": t.Subdomain, "tier": t.SubscriptionTier},
		})
	return t, nil
}

// provisionAdmin bootstraps the tenant's first admin member.
func (s *service) provisionAdmin(ctx context.Context, t *domain.Tenant, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return s.members.Put(ctx, &domain.TenantMember{
		TenantID:     t.TenantID,
		UserID:       id.New(),
		Email:        email,
		Roles:        []string{domain.MemberRoleAdmin},
		Permissions:  domain.PermissionsForRole(domain.MemberRoleAdmin),
		PasswordHash: string(hash),
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *service) Authenticate(ctx context.Context, tenantID, email, password string) (string, *domain.TenantMember, error) {
	if s.tokens == nil {
		return "", nil, fmt.Errorf("token signing unavailable: %w", domain.ErrUnauthorized)
	}
	m, err := s.members.GetByEmail(ctx, tenantID, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return "", nil, err
	}
	if !m.Enable {
		return "", nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		s.recordAudit(ctx, "member.login_failed", domain.AuditRiskMedium, domain.AuditCategoryAuthentication, m.UserID, tenantID, domain.AuditDetail{
			Action:  "login",
			Outcome: "denied",
		})
		return "", nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	role := ""
	if len(m.Roles) > 0 {
		role = m.Roles[0]
	}
	token, err := s.tokens.Sign(m.UserID, m.TenantID, role)
	if err != nil {
		return "", nil, err
	}
	s.recordAudit(ctx, "member.login", domain.AuditRiskLow, domain.AuditCategoryAuthentication, m.UserID, tenantID, domain.AuditDetail{
		Action:  "login",
		Outcome: "success",
	})
	return token, m, nil
}

func (s *service) Get(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	if t := s.cacheGet(tenantID); t != nil {
		return t, nil
	}
	t, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s.cachePut(t)
	return t, nil
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.Tenant, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) ListMembers(ctx context.Context, tenantID string) ([]domain.TenantMember, error) {
	t, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
	}
	return s.members.ListByTenant(ctx, tenantID)
}

func (s *service) Update(ctx context.Context, tenantID string, req domain.UpdateTenantRequest) (*domain.Tenant, error) {
	if err := validate.Struct(req); err != nil {
		return nil, &domain.ValidationError{Violations: strings.Split(err.Error(), "; ")}
	}
	t, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
	}
	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates[fieldDisplayName] = *req.DisplayName
	}
	if req.ContactEmail != nil {
		updates[fieldContactEmail] = *req.ContactEmail
	}
	if req.BillingEmail != nil {
		updates[fieldBillingEmail] = *req.BillingEmail
	}
	if req.CustomDomain != nil {
		updates[fieldCustomDomain] = *req.CustomDomain
	}
	if req.WebhookEndpoint != nil {
		updates[fieldWebhookEndpoint] = *req.WebhookEndpoint
	}
	if req.PrimaryColor != nil || req.SecondaryColor != nil {
		branding := t.Branding
		if req.PrimaryColor != nil {
			branding.PrimaryColor = *req.PrimaryColor
		}
		if req.SecondaryColor != nil {
			branding.SecondaryColor = *req.SecondaryColor
		}
		updates[fieldBranding] = branding
	}
	if req.FeatureFlags != nil {
		updates[fieldFeatureFlags] = req.FeatureFlags
	}
	if req.Quota != nil {
		updates[fieldQuota] = *req.Quota
	}
	if len(updates) == 0 {
		return t, nil
	}
	if err := s.repo.Update(ctx, tenantID, updates); err != nil {
		return nil, err
	}
	s.cacheDrop(tenantID)
	return s.Get(ctx, tenantID)
}

func (s *service) Activate(ctx context.Context, tenantID string) error {
	return s.transition(ctx, tenantID, domain.TenantStatusActive,
		domain.TenantStatusPendingActivation, domain.TenantStatusSuspended)
}

func (s *service) Suspend(ctx context.Context, tenantID string) error {
	return s.transition(ctx, tenantID, domain.TenantStatusSuspended, domain.TenantStatusActive)
}

func (s *service) Terminate(ctx context.Context, tenantID string) error {
	return s.transition(ctx, tenantID, domain.TenantStatusTerminated,
		domain.TenantStatusPendingActivation, domain.TenantStatusActive, domain.TenantStatusSuspended)
}

func (s *service) transition(ctx context.Context, tenantID, to string, validFrom ...string) error {
	t, err := s.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
	}
	ok := false
	for _, from := range validFrom {
		if t.Status == from {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("cannot move tenant from %s to %s: %w", t.Status, to, domain.ErrConflict)
	}
	if err := s.repo.Update(ctx, tenantID, map[string]interface{}{fieldStatus: to}); err != nil {
		return err
	}
	s.cacheDrop(tenantID)
	s.recordAudit(ctx, "tenant.status_changed", domain.AuditRiskMedium, domain.AuditCategoryTenantManagement,
		"system", tenantID, domain.AuditDetail{
			Action:      "transition",
			Description: fmt.Sprintf("status %s -> %s", t.Status, to),
			Outcome:     "success",
		})
	return nil
}

// ResolveContext tries, in order: x-tenant-id header, subdomain from the host
// header, API-key bearer token, then user membership. Inactive tenants yield
// nil — inactive means no context, fail closed.
func (s *service) ResolveContext(ctx context.Context, req TenantRequest, userID string) (*domain.TenantContext, error) {
	t, viaKey, err := s.resolveTenant(ctx, req, userID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.Status != domain.TenantStatusActive {
		return nil, nil
	}
	tc := &domain.TenantContext{
		TenantID:     t.TenantID,
		Tenant:       t,
		UserID:       userID,
		EnforceQuota: true,
		RateLimit:    domain.RateLimitForTier(t.SubscriptionTier),
	}
	if viaKey {
		// The API key is the tenant's own service credential; it carries
		// the full admin permission set.
		tc.Roles = []string{domain.MemberRoleAdmin}
		tc.Permissions = domain.PermissionsForRole(domain.MemberRoleAdmin)
	} else if userID != "" {
		if m, err := s.members.Get(ctx, t.TenantID, userID); err == nil && m.Enable {
			tc.Roles = m.Roles
			tc.Permissions = m.Permissions
		}
	}
	return tc, nil
}

func (s *service) resolveTenant(ctx context.Context, req TenantRequest, userID string) (t *domain.Tenant, viaKey bool, err error) {
	if tid := req.Header("x-tenant-id"); tid != "" {
		t, err = s.Get(ctx, tid)
		return t, false, err
	}
	if host := req.Header("host"); host != "" {
		if sub := subdomainOf(host); sub != "" {
			if t, err := s.repo.GetBySubdomain(ctx, sub); err == nil {
				s.cachePut(t)
				return t, false, nil
			}
		}
	}
	if auth := req.Header("authorization"); strings.HasPrefix(auth, "Bearer ") {
		key := strings.TrimPrefix(auth, "Bearer ")
		if t, err := s.repo.GetByAPIKey(ctx, key); err == nil {
			s.cachePut(t)
			return t, true, nil
		}
	}
	if userID != "" {
		if m, err := s.members.GetByUser(ctx, userID); err == nil {
			t, err = s.Get(ctx, m.TenantID)
			return t, false, err
		}
	}
	return nil, false, nil
}

// subdomainOf extracts the first DNS label from a host header with at least
// three labels ("acme.app.example.com" -> "acme").
func subdomainOf(host string) string {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[0]
}

func (s *service) CheckQuota(ctx context.Context, tenantID, resource string, amount int64) (domain.QuotaResult, error) {
	t, err := s.Get(ctx, tenantID)
	if err != nil {
		return domain.QuotaResult{}, err
	}
	if t == nil {
		return domain.QuotaResult{}, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
	}
	res := s.evaluate(t, resource, amount)
	if !res.Allowed {
		s.recordAudit(ctx, "quota.exceeded", domain.AuditRiskLow, domain.AuditCategoryQuota,
			"system", tenantID, domain.AuditDetail{
				Action:      "check_quota",
				Description: res.Message,
				Outcome:     "denied",
				Metadata:    map[string]string{"resource": resource},
			})
	}
	return res, nil
}

func (s *service) ReserveQuota(ctx context.Context, tenantID, resource string, amount int64) (domain.QuotaResult, error) {
	lock := s.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	res, err := s.CheckQuota(ctx, tenantID, resource, amount)
	if err != nil || !res.Allowed {
		return res, err
	}
	if err := s.UpdateUsage(ctx, tenantID, resource, amount); err != nil {
		return domain.QuotaResult{}, err
	}
	return res, nil
}

// evaluate answers the admission question against a loaded tenant. A limit of
// domain.Unlimited always passes with Remaining reporting the sentinel.
func (s *service) evaluate(t *domain.Tenant, resource string, amount int64) domain.QuotaResult {
	limit, ok := t.Quota.Limit(resource)
	if !ok {
		return domain.QuotaResult{Allowed: false, Message: fmt.Sprintf("unknown resource type %q", resource)}
	}
	if limit == domain.Unlimited {
		return domain.QuotaResult{Allowed: true, Remaining: domain.Unlimited}
	}
	current, _ := t.Usage.Current(resource)
	remaining := limit - current
	if remaining < amount {
		return domain.QuotaResult{
			Allowed:   false,
			Remaining: remaining,
			Message: fmt.Sprintf("quota exceeded for %s: current %d, limit %d, requested %d",
				resource, current, limit, amount),
		}
	}
	return domain.QuotaResult{Allowed: true, Remaining: remaining - amount}
}

func (s *service) UpdateUsage(ctx context.Context, tenantID, resource string, delta int64) error {
	t, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	current, ok := t.Usage.Current(resource)
	if !ok {
		return fmt.Errorf("unknown resource type %q: %w", resource, domain.ErrBadRequest)
	}
	next := current + delta
	if next < 0 {
		next = 0
	}
	usage := t.Usage
	usage.Set(resource, next)
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, tenantID, map[string]interface{}{
		fieldUsage:          usage,
		fieldLastActivityAt: now,
	}); err != nil {
		return err
	}
	s.cacheDrop(tenantID)
	if s.shouldSendQuotaWarning(t, resource, next) {
		// Threshold policy is a product decision that has not been made.
	}
	return nil
}

// shouldSendQuotaWarning gates the usage-threshold warning notification.
// No threshold policy is defined yet, so it never fires.
func (s *service) shouldSendQuotaWarning(_ *domain.Tenant, _ string, _ int64) bool {
	return false
}

func (s *service) UploadBrandingLogo(ctx context.Context, tenantID, filename string, r io.Reader, contentType string) (string, error) {
	t, err := s.Get(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if t == nil {
		return "", fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
	}
	if !t.Quota.CustomBranding {
		return "", fmt.Errorf("custom branding not included in tier %s: %w", t.SubscriptionTier, domain.ErrForbidden)
	}
	key := fmt.Sprintf("branding/%s/%s", tenantID, filename)
	url, err := s.assets.Upload(ctx, key, r, contentType)
	if err != nil {
		return "", err
	}
	// Replacing the logo orphans the previous object; remove it best-effort.
	if t.Branding.LogoKey != "" && t.Branding.LogoKey != key {
		_ = s.assets.Delete(ctx, t.Branding.LogoKey)
	}
	branding := t.Branding
	branding.LogoURL = url
	branding.LogoKey = key
	if err := s.repo.Update(ctx, tenantID, map[string]interface{}{fieldBranding: branding}); err != nil {
		return "", err
	}
	s.cacheDrop(tenantID)
	return url, nil
}

func (s *service) tenantLock(tenantID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if l, ok := s.locks[tenantID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[tenantID] = l
	return l
}

func (s *service) cacheGet(tenantID string) *domain.Tenant {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache[tenantID]
}

func (s *service) cachePut(t *domain.Tenant) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache[t.TenantID] = t
}

func (s *service) cacheDrop(tenantID string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.cache, tenantID)
}

// recordAudit emits best-effort: a sink failure never blocks the operation.
func (s *service) recordAudit(ctx context.Context, eventType, risk, category, actor, target string, detail domain.AuditDetail) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, &domain.AuditEvent{
		EventID:   id.New(),
		EventType: eventType,
		RiskLevel: risk,
		Category:  category,
		Actor:     actor,
		Target:    target,
		Event:     detail,
		Compliance: domain.AuditCompliance{
			Frameworks:      []string{"GDPR", "ISO27001"},
			RetentionPeriod: "7y",
			SensitiveData:   false,
			AuditRequired:   true,
		},
		CreatedAt: time.Now().UTC(),
	})
}
