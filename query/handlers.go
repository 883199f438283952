package query

import (
	"context"

	"github.com/goliatone/go-shortlink/core"
)

// LinkResolverReader answers resolve requests. The orchestrator satisfies it.
type LinkResolverReader interface {
	Resolve(ctx context.Context, req core.ResolveRequest) (core.Resolution, error)
}

type LinkReader interface {
	GetLink(ctx context.Context, id string) (core.ShortLink, error)
}

type TenantLinksReader interface {
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]core.ShortLink, int, error)
}

type TenantReader interface {
	Tenant(ctx context.Context, id string) (core.Tenant, error)
}

// LinkPage is one page of a tenant's live links plus the unpaged total.
type LinkPage struct {
	Links []core.ShortLink
	Total int
}

type ResolveLinkQuery struct {
	reader LinkResolverReader
}

func NewResolveLinkQuery(reader LinkResolverReader) *ResolveLinkQuery {
	return &ResolveLinkQuery{reader: reader}
}

func (q *ResolveLinkQuery) Query(ctx context.Context, msg ResolveLinkMessage) (core.Resolution, error) {
	if q == nil || q.reader == nil {
		return core.Resolution{}, queryDependencyError("query: link resolver is required")
	}
	return q.reader.Resolve(ctx, msg.Request)
}

type GetLinkQuery struct {
	reader LinkReader
}

func NewGetLinkQuery(reader LinkReader) *GetLinkQuery {
	return &GetLinkQuery{reader: reader}
}

func (q *GetLinkQuery) Query(ctx context.Context, msg GetLinkMessage) (core.ShortLink, error) {
	if q == nil || q.reader == nil {
		return core.ShortLink{}, queryDependencyError("query: link reader is required")
	}
	return q.reader.GetLink(ctx, msg.LinkID)
}

type ListTenantLinksQuery struct {
	reader TenantLinksReader
}

func NewListTenantLinksQuery(reader TenantLinksReader) *ListTenantLinksQuery {
	return &ListTenantLinksQuery{reader: reader}
}

func (q *ListTenantLinksQuery) Query(ctx context.Context, msg ListTenantLinksMessage) (LinkPage, error) {
	if q == nil || q.reader == nil {
		return LinkPage{}, queryDependencyError("query: tenant links reader is required")
	}
	links, total, err := q.reader.ListByTenant(ctx, msg.TenantID, msg.Limit, msg.Offset)
	if err != nil {
		return LinkPage{}, err
	}
	return LinkPage{Links: links, Total: total}, nil
}

type GetTenantQuery struct {
	reader TenantReader
}

func NewGetTenantQuery(reader TenantReader) *GetTenantQuery {
	return &GetTenantQuery{reader: reader}
}

func (q *GetTenantQuery) Query(ctx context.Context, msg GetTenantMessage) (core.Tenant, error) {
	if q == nil || q.reader == nil {
		return core.Tenant{}, queryDependencyError("query: tenant reader is required")
	}
	return q.reader.Tenant(ctx, msg.TenantID)
}
