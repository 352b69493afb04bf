package server

import (
	"context"
	"crypto/subtle"
	"net/http"
)

// TenantAuth validates the X-Tenant-ID/X-API-Key header pair against a
// configured set of per-tenant API keys, per spec §6.1: missing headers are
// 401, an invalid key is 403, and a valid tenant is stashed on the request
// context for handlers to scope every subsequent lookup by.
type TenantAuth struct {
	keys map[string]string // tenant -> api key
}

// NewTenantAuth builds a TenantAuth from a tenant -> api key map.
func NewTenantAuth(keys map[string]string) *TenantAuth {
	return &TenantAuth{keys: keys}
}

type tenantContextKey struct{}

// tenantFromContext returns the authenticated tenant stashed by middleware.
// Empty means the request never passed through it.
func tenantFromContext(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantContextKey{}).(string)
	return tenant
}

func (a *TenantAuth) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := r.Header.Get("X-Tenant-ID")
		apiKey := r.Header.Get("X-API-Key")
		if tenant == "" || apiKey == "" {
			http.Error(w, "missing X-Tenant-ID/X-API-Key", http.StatusUnauthorized)
			return
		}

		want, ok := a.keys[tenant]
		if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(apiKey)) != 1 {
			http.Error(w, "invalid tenant credentials", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), tenantContextKey{}, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
