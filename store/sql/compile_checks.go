package sqlstore

import "github.com/goliatone/go-shortlink/core"

var (
	_ core.LinkStore              = (*LinkStore)(nil)
	_ core.TenantStore            = (*TenantStore)(nil)
	_ core.LinkStore              = (*CachedLinkStore)(nil)
	_ core.TenantStore            = (*CachedTenantStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
