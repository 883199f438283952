package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-shortlink/core"
)

const tenantCacheKeyPrefix = "go-shortlink::tenant::v1"

// CachedTenantStore caches tenant reads. Tenant data changes rarely, so all
// three lookups cache and staleness is bounded by the tenant TTL.
type CachedTenantStore struct {
	base  core.TenantStore
	cache repositorycache.CacheService
}

func NewCachedTenantStore(base core.TenantStore, cacheService repositorycache.CacheService) (*CachedTenantStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base tenant store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: tenant cache service is required")
	}
	return &CachedTenantStore{base: base, cache: cacheService}, nil
}

func tenantCacheKey(kind, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("sqlstore: %s is required for tenant cache key", kind)
	}
	return strings.Join([]string{tenantCacheKeyPrefix, kind, url.PathEscape(value)}, "::"), nil
}

func (s *CachedTenantStore) Get(ctx context.Context, id string) (core.Tenant, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Tenant{}, fmt.Errorf("sqlstore: cached tenant store is not configured")
	}
	cacheKey, err := tenantCacheKey("id", id)
	if err != nil {
		return core.Tenant{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Tenant, error) {
		return s.base.Get(ctx, id)
	})
}

func (s *CachedTenantStore) FindVerifiedDomain(ctx context.Context, host string) (core.Tenant, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Tenant{}, fmt.Errorf("sqlstore: cached tenant store is not configured")
	}
	cacheKey, err := tenantCacheKey("domain", core.NormalizeHost(host))
	if err != nil {
		return core.Tenant{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Tenant, error) {
		return s.base.FindVerifiedDomain(ctx, host)
	})
}

func (s *CachedTenantStore) FindTenantBySlug(ctx context.Context, slug string) (core.Tenant, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Tenant{}, fmt.Errorf("sqlstore: cached tenant store is not configured")
	}
	cacheKey, err := tenantCacheKey("slug", strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return core.Tenant{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Tenant, error) {
		return s.base.FindTenantBySlug(ctx, slug)
	})
}

// Invalidate drops every cached projection of a tenant. Admin mutations call
// it after writes.
func (s *CachedTenantStore) Invalidate(ctx context.Context, tenant core.Tenant, hosts ...string) {
	if s == nil || s.cache == nil {
		return
	}
	if key, err := tenantCacheKey("id", tenant.ID); err == nil {
		_ = s.cache.Delete(ctx, key)
	}
	if key, err := tenantCacheKey("slug", strings.ToLower(tenant.Slug)); err == nil {
		_ = s.cache.Delete(ctx, key)
	}
	for _, host := range hosts {
		if key, err := tenantCacheKey("domain", core.NormalizeHost(host)); err == nil {
			_ = s.cache.Delete(ctx, key)
		}
	}
}

var _ core.TenantStore = (*CachedTenantStore)(nil)
