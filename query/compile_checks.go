package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-shortlink/core"
)

var (
	_ gocmd.Querier[ResolveLinkMessage, core.Resolution] = (*ResolveLinkQuery)(nil)
	_ gocmd.Querier[GetLinkMessage, core.ShortLink]      = (*GetLinkQuery)(nil)
	_ gocmd.Querier[ListTenantLinksMessage, LinkPage]    = (*ListTenantLinksQuery)(nil)
	_ gocmd.Querier[GetTenantMessage, core.Tenant]       = (*GetTenantQuery)(nil)
)
