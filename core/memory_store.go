package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLinkStore is the in-process LinkStore used for tests and for embedded
// setups that do not wire persistence. It enforces the same two per-tenant
// uniqueness constraints the SQL store declares.
type MemoryLinkStore struct {
	mu    sync.RWMutex
	byID  map[string]ShortLink
	now   func() time.Time
}

func NewMemoryLinkStore() *MemoryLinkStore {
	return &MemoryLinkStore{
		byID: map[string]ShortLink{},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryLinkStore) InsertIfAbsent(_ context.Context, link ShortLink) (ShortLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.byID {
		if existing.Deleted || existing.TenantID != link.TenantID {
			continue
		}
		if existing.CanonicalURL == link.CanonicalURL {
			return ShortLink{}, fmt.Errorf("%w: %s", ErrDuplicateCanonicalURL, link.CanonicalURL)
		}
	}
	for _, existing := range s.byID {
		if existing.Deleted || existing.TenantID != link.TenantID {
			continue
		}
		if existing.Code == link.Code {
			return ShortLink{}, fmt.Errorf("%w: %s", ErrDuplicateCode, link.Code)
		}
	}

	if strings.TrimSpace(link.ID) == "" {
		link.ID = uuid.NewString()
	}
	now := s.now()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now
	}
	if link.UpdatedAt.IsZero() {
		link.UpdatedAt = now
	}
	s.byID[link.ID] = link
	return link, nil
}

func (s *MemoryLinkStore) FindByTenantAndCode(_ context.Context, tenantID, code string) (ShortLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, link := range s.byID {
		if !link.Deleted && link.TenantID == tenantID && link.Code == code {
			return link, nil
		}
	}
	return ShortLink{}, fmt.Errorf("%w: tenant=%s code=%s", ErrLinkNotFound, tenantID, code)
}

func (s *MemoryLinkStore) FindByTenantAndCanonicalURL(_ context.Context, tenantID, canonicalURL string) (ShortLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, link := range s.byID {
		if !link.Deleted && link.TenantID == tenantID && link.CanonicalURL == canonicalURL {
			return link, nil
		}
	}
	return ShortLink{}, fmt.Errorf("%w: tenant=%s", ErrLinkNotFound, tenantID)
}

func (s *MemoryLinkStore) FindByID(_ context.Context, id string) (ShortLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.byID[id]
	if !ok {
		return ShortLink{}, fmt.Errorf("%w: id=%s", ErrLinkNotFound, id)
	}
	return link, nil
}

func (s *MemoryLinkStore) SetActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.byID[id]
	if !ok || link.Deleted {
		return fmt.Errorf("%w: id=%s", ErrLinkNotFound, id)
	}
	link.Active = active
	link.UpdatedAt = s.now()
	s.byID[id] = link
	return nil
}

func (s *MemoryLinkStore) SoftDelete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.byID[id]
	if !ok || link.Deleted {
		return fmt.Errorf("%w: id=%s", ErrLinkNotFound, id)
	}
	link.Deleted = true
	link.UpdatedAt = s.now()
	s.byID[id] = link
	return nil
}

func (s *MemoryLinkStore) IncrementClickCount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.byID[id]
	if !ok || link.Deleted {
		return fmt.Errorf("%w: id=%s", ErrLinkNotFound, id)
	}
	link.ClickCount++
	link.UpdatedAt = s.now()
	s.byID[id] = link
	return nil
}

// MemoryTenantStore is the in-process TenantStore. Hosts are normalized on
// the way in so lookups match regardless of case or port.
type MemoryTenantStore struct {
	mu       sync.RWMutex
	byID     map[string]Tenant
	bySlug   map[string]string
	byDomain map[string]string
}

func NewMemoryTenantStore() *MemoryTenantStore {
	return &MemoryTenantStore{
		byID:     map[string]Tenant{},
		bySlug:   map[string]string{},
		byDomain: map[string]string{},
	}
}

// PutTenant registers a tenant, replacing any prior entry with the same id.
func (s *MemoryTenantStore) PutTenant(tenant Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(tenant.ID) == "" {
		tenant.ID = uuid.NewString()
	}
	s.byID[tenant.ID] = tenant
	if slug := strings.TrimSpace(strings.ToLower(tenant.Slug)); slug != "" {
		s.bySlug[slug] = tenant.ID
	}
}

// PutVerifiedDomain binds a serving host to a tenant.
func (s *MemoryTenantStore) PutVerifiedDomain(host, tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byDomain[NormalizeHost(host)] = tenantID
}

func (s *MemoryTenantStore) Get(_ context.Context, id string) (Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenant, ok := s.byID[id]
	if !ok || !tenant.Active {
		return Tenant{}, fmt.Errorf("%w: id=%s", ErrTenantNotFound, id)
	}
	return tenant, nil
}

func (s *MemoryTenantStore) FindVerifiedDomain(_ context.Context, host string) (Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenantID, ok := s.byDomain[NormalizeHost(host)]
	if !ok {
		return Tenant{}, fmt.Errorf("%w: host=%s", ErrTenantNotFound, host)
	}
	tenant, ok := s.byID[tenantID]
	if !ok || !tenant.Active {
		return Tenant{}, fmt.Errorf("%w: host=%s", ErrTenantNotFound, host)
	}
	return tenant, nil
}

func (s *MemoryTenantStore) FindTenantBySlug(_ context.Context, slug string) (Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenantID, ok := s.bySlug[strings.TrimSpace(strings.ToLower(slug))]
	if !ok {
		return Tenant{}, fmt.Errorf("%w: slug=%s", ErrTenantNotFound, slug)
	}
	tenant, ok := s.byID[tenantID]
	if !ok || !tenant.Active {
		return Tenant{}, fmt.Errorf("%w: slug=%s", ErrTenantNotFound, slug)
	}
	return tenant, nil
}
