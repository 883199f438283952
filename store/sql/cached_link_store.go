package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-shortlink/core"
)

const linkCacheKeyPrefix = "go-shortlink::link::v1"

// CachedLinkStore wraps a LinkStore with cache-aside reads on the two hot
// lookups. Misses are never stored: a fetch error propagates without leaving
// a cache entry, so a code created moments later resolves immediately.
// Lifecycle mutations invalidate both the code key and the id key; click
// increments invalidate nothing and ride out the TTL.
type CachedLinkStore struct {
	base  core.LinkStore
	cache repositorycache.CacheService
}

func NewCachedLinkStore(base core.LinkStore, cacheService repositorycache.CacheService) (*CachedLinkStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base link store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: link cache service is required")
	}
	return &CachedLinkStore{base: base, cache: cacheService}, nil
}

// LinkCodeCacheKey is the deterministic cache key contract for code lookups:
// go-shortlink::link::v1::code::<tenant_id>::<code> with each segment
// URL-path escaped.
func LinkCodeCacheKey(tenantID, code string) (string, error) {
	tenantID = strings.TrimSpace(tenantID)
	code = strings.TrimSpace(code)
	if tenantID == "" || code == "" {
		return "", fmt.Errorf("sqlstore: tenant id and code are required for cache key")
	}
	return strings.Join([]string{
		linkCacheKeyPrefix, "code", url.PathEscape(tenantID), url.PathEscape(code),
	}, "::"), nil
}

// LinkIDCacheKey is the id-lookup counterpart:
// go-shortlink::link::v1::id::<id>.
func LinkIDCacheKey(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("sqlstore: link id is required for cache key")
	}
	return strings.Join([]string{linkCacheKeyPrefix, "id", url.PathEscape(id)}, "::"), nil
}

func (s *CachedLinkStore) InsertIfAbsent(ctx context.Context, link core.ShortLink) (core.ShortLink, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.ShortLink{}, fmt.Errorf("sqlstore: cached link store is not configured")
	}
	created, err := s.base.InsertIfAbsent(ctx, link)
	if err != nil {
		return core.ShortLink{}, err
	}
	// A lost race may have left nothing cached under this code, but a prior
	// soft delete could have: drop both keys so the fresh row wins.
	s.invalidate(ctx, created)
	return created, nil
}

func (s *CachedLinkStore) FindByTenantAndCode(ctx context.Context, tenantID, code string) (core.ShortLink, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.ShortLink{}, fmt.Errorf("sqlstore: cached link store is not configured")
	}
	cacheKey, err := LinkCodeCacheKey(tenantID, code)
	if err != nil {
		return core.ShortLink{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.ShortLink, error) {
		return s.base.FindByTenantAndCode(ctx, tenantID, code)
	})
}

// FindByTenantAndCanonicalURL passes through uncached. It only runs on the
// create path, where a stale answer would defeat the insert-or-reuse
// arbitration.
func (s *CachedLinkStore) FindByTenantAndCanonicalURL(ctx context.Context, tenantID, canonicalURL string) (core.ShortLink, error) {
	if s == nil || s.base == nil {
		return core.ShortLink{}, fmt.Errorf("sqlstore: cached link store is not configured")
	}
	return s.base.FindByTenantAndCanonicalURL(ctx, tenantID, canonicalURL)
}

func (s *CachedLinkStore) FindByID(ctx context.Context, id string) (core.ShortLink, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.ShortLink{}, fmt.Errorf("sqlstore: cached link store is not configured")
	}
	cacheKey, err := LinkIDCacheKey(id)
	if err != nil {
		return core.ShortLink{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.ShortLink, error) {
		return s.base.FindByID(ctx, id)
	})
}

func (s *CachedLinkStore) SetActive(ctx context.Context, id string, active bool) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached link store is not configured")
	}
	link, err := s.base.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.base.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.invalidate(ctx, link)
	return nil
}

func (s *CachedLinkStore) SoftDelete(ctx context.Context, id string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached link store is not configured")
	}
	link, err := s.base.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.base.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, link)
	return nil
}

// IncrementClickCount passes through without invalidation. The counter is
// advisory on the read path; a budget check may run one TTL stale.
func (s *CachedLinkStore) IncrementClickCount(ctx context.Context, id string) error {
	if s == nil || s.base == nil {
		return fmt.Errorf("sqlstore: cached link store is not configured")
	}
	return s.base.IncrementClickCount(ctx, id)
}

func (s *CachedLinkStore) invalidate(ctx context.Context, link core.ShortLink) {
	if codeKey, err := LinkCodeCacheKey(link.TenantID, link.Code); err == nil {
		_ = s.cache.Delete(ctx, codeKey)
	}
	if idKey, err := LinkIDCacheKey(link.ID); err == nil {
		_ = s.cache.Delete(ctx, idKey)
	}
}

var _ core.LinkStore = (*CachedLinkStore)(nil)
