package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-shortlink/core"
)

type stubLinkStore struct {
	mu        sync.Mutex
	link      core.ShortLink
	findCalls int
	idCalls   int
	findErr   error
}

func (s *stubLinkStore) InsertIfAbsent(_ context.Context, link core.ShortLink) (core.ShortLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.link = link
	return link, nil
}

func (s *stubLinkStore) FindByTenantAndCode(_ context.Context, _, _ string) (core.ShortLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.findErr != nil {
		return core.ShortLink{}, s.findErr
	}
	return s.link, nil
}

func (s *stubLinkStore) FindByTenantAndCanonicalURL(_ context.Context, _, _ string) (core.ShortLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	return s.link, nil
}

func (s *stubLinkStore) FindByID(_ context.Context, _ string) (core.ShortLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idCalls++
	return s.link, nil
}

func (s *stubLinkStore) SetActive(_ context.Context, _ string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.link.Active = active
	return nil
}

func (s *stubLinkStore) SoftDelete(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.link.Deleted = true
	return nil
}

func (s *stubLinkStore) IncrementClickCount(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.link.ClickCount++
	return nil
}

func newTestCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func testLink() core.ShortLink {
	return core.ShortLink{
		ID:           "3f0c0b6e-6f3a-4f5e-9b77-000000000001",
		TenantID:     "t1",
		Code:         "abc1111111",
		CanonicalURL: "https://example.com/a",
		OriginalURL:  "https://example.com/a",
		Active:       true,
	}
}

func TestCachedLinkStore_CodeLookupMissFetchThenHit(t *testing.T) {
	base := &stubLinkStore{link: testLink()}
	store, err := NewCachedLinkStore(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached link store: %v", err)
	}

	if _, err := store.FindByTenantAndCode(context.Background(), "t1", "abc1111111"); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if base.findCalls != 1 {
		t.Fatalf("expected one base fetch, got %d", base.findCalls)
	}
	if _, err := store.FindByTenantAndCode(context.Background(), "t1", "abc1111111"); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if base.findCalls != 1 {
		t.Fatalf("expected cache hit, base calls=%d", base.findCalls)
	}
}

func TestCachedLinkStore_MissesAreNotCached(t *testing.T) {
	base := &stubLinkStore{findErr: core.ErrLinkNotFound}
	store, err := NewCachedLinkStore(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached link store: %v", err)
	}

	if _, err := store.FindByTenantAndCode(context.Background(), "t1", "missing111"); !errors.Is(err, core.ErrLinkNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	// The code appears; the next lookup must reach the base store.
	base.mu.Lock()
	base.findErr = nil
	base.link = testLink()
	base.link.Code = "missing111"
	base.mu.Unlock()

	link, err := store.FindByTenantAndCode(context.Background(), "t1", "missing111")
	if err != nil {
		t.Fatalf("expected fresh fetch after miss, got %v", err)
	}
	if link.Code != "missing111" {
		t.Fatalf("expected new row, got %q", link.Code)
	}
}

func TestCachedLinkStore_SetActiveInvalidatesBothKeys(t *testing.T) {
	base := &stubLinkStore{link: testLink()}
	store, err := NewCachedLinkStore(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached link store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.FindByTenantAndCode(ctx, "t1", "abc1111111"); err != nil {
		t.Fatalf("prime code key: %v", err)
	}
	if _, err := store.FindByID(ctx, base.link.ID); err != nil {
		t.Fatalf("prime id key: %v", err)
	}
	codeFetches := base.findCalls
	idFetches := base.idCalls

	if err := store.SetActive(ctx, base.link.ID, false); err != nil {
		t.Fatalf("set active: %v", err)
	}

	link, err := store.FindByTenantAndCode(ctx, "t1", "abc1111111")
	if err != nil {
		t.Fatalf("get after invalidation: %v", err)
	}
	if base.findCalls != codeFetches+1 {
		t.Fatalf("expected code key invalidated, base calls=%d", base.findCalls)
	}
	if link.Active {
		t.Fatalf("expected deactivated link from fresh fetch")
	}

	if _, err := store.FindByID(ctx, base.link.ID); err != nil {
		t.Fatalf("id get after invalidation: %v", err)
	}
	// SetActive itself reads by id once to learn the cache keys.
	if base.idCalls != idFetches+2 {
		t.Fatalf("expected id key invalidated, base id calls=%d", base.idCalls)
	}
}

func TestCachedLinkStore_ClickIncrementDoesNotInvalidate(t *testing.T) {
	base := &stubLinkStore{link: testLink()}
	store, err := NewCachedLinkStore(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached link store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.FindByTenantAndCode(ctx, "t1", "abc1111111"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if err := store.IncrementClickCount(ctx, base.link.ID); err != nil {
		t.Fatalf("increment: %v", err)
	}

	link, err := store.FindByTenantAndCode(ctx, "t1", "abc1111111")
	if err != nil {
		t.Fatalf("get after increment: %v", err)
	}
	if base.findCalls != 1 {
		t.Fatalf("expected cached read to survive click increment, base calls=%d", base.findCalls)
	}
	if link.ClickCount != 0 {
		t.Fatalf("expected stale cached count, got %d", link.ClickCount)
	}
}

func TestLinkCacheKey_Contract(t *testing.T) {
	key, err := LinkCodeCacheKey(" t1 ", "abc1111111")
	if err != nil {
		t.Fatalf("build cache key: %v", err)
	}
	const expected = "go-shortlink::link::v1::code::t1::abc1111111"
	if key != expected {
		t.Fatalf("unexpected cache key contract: got %q want %q", key, expected)
	}

	escaped, err := LinkCodeCacheKey("tenant/with space", "abc")
	if err != nil {
		t.Fatalf("build escaped key: %v", err)
	}
	const expectedEscaped = "go-shortlink::link::v1::code::tenant%2Fwith%20space::abc"
	if escaped != expectedEscaped {
		t.Fatalf("unexpected escaped key: got %q want %q", escaped, expectedEscaped)
	}

	if _, err := LinkCodeCacheKey("", "abc"); err == nil {
		t.Fatalf("expected error for empty tenant")
	}
	if _, err := LinkIDCacheKey(" "); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestCachedTenantStore_CachesAllLookups(t *testing.T) {
	base := core.NewMemoryTenantStore()
	base.PutTenant(core.Tenant{ID: "tenant-acme", Slug: "acme", Name: "Acme", Active: true})
	base.PutVerifiedDomain("links.acme.com", "tenant-acme")

	store, err := NewCachedTenantStore(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached tenant store: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := store.Get(ctx, "tenant-acme"); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if _, err := store.FindTenantBySlug(ctx, "ACME"); err != nil {
			t.Fatalf("slug %d: %v", i, err)
		}
		if _, err := store.FindVerifiedDomain(ctx, "LINKS.ACME.COM:443"); err != nil {
			t.Fatalf("domain %d: %v", i, err)
		}
	}

	if _, err := store.FindTenantBySlug(ctx, "nope"); !core.IsTenantNotFound(err) {
		t.Fatalf("expected tenant not found, got %v", err)
	}
}
