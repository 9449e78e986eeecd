package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	notifapp "github.com/propdev-core/internal/application/notification"
	tenantapp "github.com/propdev-core/internal/application/tenant"
	"github.com/propdev-core/internal/config"
	"github.com/propdev-core/internal/domain"
	jwtinfra "github.com/propdev-core/internal/infrastructure/jwt"
	"github.com/propdev-core/internal/transport/http/handler"
	appmiddleware "github.com/propdev-core/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds the application services the router exposes.
type Deps struct {
	TenantSvc   tenantapp.Service
	NotifSvc    notifapp.Service
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Tenant-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	passthrough := func(next http.Handler) http.Handler { return next }
	authMw, optionalAuthMw := passthrough, passthrough
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
		optionalAuthMw = appmiddleware.OptionalAuth(deps.JWTProvider)
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	// Requests with a resolved tenant are keyed and limited per tier; the
	// starter policy is the fallback for anything else.
	starter := domain.RateLimitForTier(domain.TierStarter)
	tenantRL := appmiddleware.NewRateLimiter(rate.Limit(starter.RequestsPerSecond), starter.Burst)

	healthH := handler.NewHealthHandler()
	tenantH := handler.NewTenantHandler(deps.TenantSvc)
	templateH := handler.NewTemplateHandler(deps.NotifSvc)
	notifH := handler.NewNotificationHandler(deps.NotifSvc)
	analyticsH := handler.NewAnalyticsHandler(deps.NotifSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/tenants", tenantH.Create)
		r.With(sensitiveRL.Limit).Post("/auth/login", tenantH.Login)

		// Delivery-provider engagement callbacks carry no tenant headers.
		r.Post("/notifications/{id}/status", notifH.StatusCallback)

		// ── Admin surface (JWT) ──────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(appmiddleware.RequireRole(domain.MemberRoleAdmin))

			r.Get("/tenants", tenantH.List)
			r.Get("/tenants/{id}", tenantH.Get)
			r.Put("/tenants/{id}", tenantH.Update)
			r.Post("/tenants/{id}/lifecycle/{action}", tenantH.Lifecycle)
			r.Get("/tenants/{id}/members", tenantH.ListMembers)
			r.Get("/tenants/{id}/quota/{resource}", tenantH.CheckQuota)
			r.Post("/tenants/{id}/usage", tenantH.UpdateUsage)
			r.Post("/tenants/{id}/branding/logo", tenantH.UploadBrandingLogo)
		})

		// ── Tenant surface (resolved tenant context) ─────────────────────────
		r.Group(func(r chi.Router) {
			// Claims are optional here: they only feed membership-based
			// tenant resolution inside TenantContext.
			r.Use(optionalAuthMw)
			r.Use(appmiddleware.TenantContext(deps.TenantSvc))
			r.Use(tenantRL.Limit)

			r.Get("/templates", templateH.List)
			r.Get("/templates/{id}", templateH.Get)
			r.Get("/notifications/{id}", notifH.Get)

			r.With(appmiddleware.RequirePermission("notifications:send")).Post("/templates", templateH.Create)
			r.With(appmiddleware.RequirePermission("notifications:send")).Put("/recipients", notifH.UpsertRecipient)
			r.With(appmiddleware.RequirePermission("notifications:send")).Post("/notifications", notifH.Send)
			r.With(appmiddleware.RequirePermission("notifications:send")).Post("/notifications/bulk", notifH.SendBulk)
			r.With(appmiddleware.RequirePermission("analytics:read")).Get("/analytics/notifications", analyticsH.Notifications)
		})
	})

	return r
}
