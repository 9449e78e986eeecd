package middleware

import (
	"context"
	"net/http"

	tenantapp "github.com/propdev-core/internal/application/tenant"
	"github.com/propdev-core/internal/domain"
)

const TenantContextKey contextKey = "tenant_context"

// headerRequest adapts *http.Request to the header accessor the tenant
// service resolves against.
type headerRequest struct{ r *http.Request }

func (h headerRequest) Header(name string) string {
	if name == "host" {
		return h.r.Host
	}
	return h.r.Header.Get(name)
}

// TenantContext resolves the tenant for every request and injects it into the
// request context. An unresolvable or inactive tenant is a 404; only a
// backing-store fault is a 500.
func TenantContext(svc tenantapp.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""
			if claims, ok := ClaimsFromContext(r.Context()); ok {
				userID = claims.UserID
			}
			tc, err := svc.ResolveContext(r.Context(), headerRequest{r}, userID)
			if err != nil {
				http.Error(w, `{"error":"tenant resolution failed"}`, http.StatusInternalServerError)
				return
			}
			if tc == nil {
				http.Error(w, `{"error":"tenant not found"}`, http.StatusNotFound)
				return
			}
			ctx := context.WithValue(r.Context(), TenantContextKey, tc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantFromContext extracts the resolved tenant context from the request context.
func TenantFromContext(ctx context.Context) (*domain.TenantContext, bool) {
	tc, ok := ctx.Value(TenantContextKey).(*domain.TenantContext)
	return tc, ok
}

// RequirePermission rejects requests whose tenant context lacks the permission.
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, ok := TenantFromContext(r.Context())
			if !ok || !tc.HasPermission(perm) {
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
