package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-shortlink/core"
)

type linkRecord struct {
	bun.BaseModel `bun:"table:short_links,alias:sl"`

	ID           string     `bun:"id,pk"`
	TenantID     string     `bun:"tenant_id,notnull"`
	Code         string     `bun:"code,notnull"`
	CanonicalURL string     `bun:"canonical_url,notnull"`
	OriginalURL  string     `bun:"original_url,notnull"`
	ClickCount   int64      `bun:"click_count,notnull"`
	MaxClicks    *int64     `bun:"max_clicks"`
	Active       bool       `bun:"active,notnull"`
	ExpiresAt    *time.Time `bun:"expires_at,nullzero"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt    *time.Time `bun:"deleted_at,soft_delete"`
}

func (r *linkRecord) toDomain() core.ShortLink {
	if r == nil {
		return core.ShortLink{}
	}
	return core.ShortLink{
		ID:           r.ID,
		TenantID:     r.TenantID,
		Code:         r.Code,
		CanonicalURL: r.CanonicalURL,
		OriginalURL:  r.OriginalURL,
		ClickCount:   r.ClickCount,
		MaxClicks:    cloneInt64Pointer(r.MaxClicks),
		Active:       r.Active,
		Deleted:      r.DeletedAt != nil,
		ExpiresAt:    cloneTimePointer(r.ExpiresAt),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newLinkRecord(link core.ShortLink, now time.Time) *linkRecord {
	record := &linkRecord{
		ID:           link.ID,
		TenantID:     link.TenantID,
		Code:         link.Code,
		CanonicalURL: link.CanonicalURL,
		OriginalURL:  link.OriginalURL,
		ClickCount:   link.ClickCount,
		MaxClicks:    cloneInt64Pointer(link.MaxClicks),
		Active:       link.Active,
		ExpiresAt:    cloneTimePointer(link.ExpiresAt),
		CreatedAt:    link.CreatedAt,
		UpdatedAt:    link.UpdatedAt,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}
	return record
}

type tenantRecord struct {
	bun.BaseModel `bun:"table:tenants,alias:t"`

	ID        string    `bun:"id,pk"`
	Slug      string    `bun:"slug,notnull"`
	Name      string    `bun:"name,notnull"`
	Active    bool      `bun:"active,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *tenantRecord) toDomain() core.Tenant {
	if r == nil {
		return core.Tenant{}
	}
	return core.Tenant{
		ID:        r.ID,
		Slug:      r.Slug,
		Name:      r.Name,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type domainBindingRecord struct {
	bun.BaseModel `bun:"table:tenant_domains,alias:td"`

	ID         string     `bun:"id,pk"`
	TenantID   string     `bun:"tenant_id,notnull"`
	Host       string     `bun:"host,notnull"`
	Verified   bool       `bun:"verified,notnull"`
	VerifiedAt *time.Time `bun:"verified_at,nullzero"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *domainBindingRecord) toDomain() core.DomainBinding {
	if r == nil {
		return core.DomainBinding{}
	}
	return core.DomainBinding{
		ID:         r.ID,
		TenantID:   r.TenantID,
		Host:       r.Host,
		Verified:   r.Verified,
		VerifiedAt: cloneTimePointer(r.VerifiedAt),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func cloneTimePointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}

func cloneInt64Pointer(input *int64) *int64 {
	if input == nil {
		return nil
	}
	value := *input
	return &value
}
