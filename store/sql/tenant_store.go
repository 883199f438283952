package sqlstore

import (
	"context"
	"fmt"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-shortlink/core"
)

// TenantStore reads tenants and their verified domain bindings. Inactive
// tenants and unverified bindings read as absent; tenant resolution treats
// both the same as a miss.
type TenantStore struct {
	db      *bun.DB
	tenants repository.Repository[*tenantRecord]
	domains repository.Repository[*domainBindingRecord]
}

func (s *TenantStore) Get(ctx context.Context, id string) (core.Tenant, error) {
	if s == nil || s.tenants == nil {
		return core.Tenant{}, fmt.Errorf("sqlstore: tenant store is not configured")
	}
	record, err := s.tenants.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if isNoRows(err) {
			return core.Tenant{}, fmt.Errorf("%w: id=%s", core.ErrTenantNotFound, id)
		}
		return core.Tenant{}, err
	}
	if !record.Active {
		return core.Tenant{}, fmt.Errorf("%w: id=%s", core.ErrTenantNotFound, id)
	}
	return record.toDomain(), nil
}

func (s *TenantStore) FindVerifiedDomain(ctx context.Context, host string) (core.Tenant, error) {
	if s == nil || s.domains == nil {
		return core.Tenant{}, fmt.Errorf("sqlstore: tenant store is not configured")
	}
	host = core.NormalizeHost(host)
	if host == "" {
		return core.Tenant{}, fmt.Errorf("%w: empty host", core.ErrTenantNotFound)
	}
	records, _, err := s.domains.List(ctx,
		repository.SelectBy("host", "=", host),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.verified = ?", true)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Tenant{}, err
	}
	if len(records) == 0 {
		return core.Tenant{}, fmt.Errorf("%w: host=%s", core.ErrTenantNotFound, host)
	}
	return s.Get(ctx, records[0].TenantID)
}

func (s *TenantStore) FindTenantBySlug(ctx context.Context, slug string) (core.Tenant, error) {
	if s == nil || s.tenants == nil {
		return core.Tenant{}, fmt.Errorf("sqlstore: tenant store is not configured")
	}
	slug = strings.TrimSpace(strings.ToLower(slug))
	if slug == "" {
		return core.Tenant{}, fmt.Errorf("%w: empty slug", core.ErrTenantNotFound)
	}
	records, _, err := s.tenants.List(ctx,
		repository.SelectBy("slug", "=", slug),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.active = ?", true)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Tenant{}, err
	}
	if len(records) == 0 {
		return core.Tenant{}, fmt.Errorf("%w: slug=%s", core.ErrTenantNotFound, slug)
	}
	return records[0].toDomain(), nil
}
