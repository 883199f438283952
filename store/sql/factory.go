package sqlstore

import (
	"fmt"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-shortlink/core"
)

// RepositoryFactory builds the SQL-backed stores from a persistence client
// or a raw bun DB. With cache TTLs configured it layers the cached stores on
// top.
type RepositoryFactory struct {
	db *bun.DB

	linkTTL   time.Duration
	tenantTTL time.Duration

	linkStore   core.LinkStore
	tenantStore core.TenantStore
	baseLinks   *LinkStore
	baseTenants *TenantStore
}

type FactoryOption func(*RepositoryFactory)

// WithCacheTTLs enables cache-aside stores. A zero TTL disables caching for
// that store.
func WithCacheTTLs(linkTTL, tenantTTL time.Duration) FactoryOption {
	return func(f *RepositoryFactory) {
		f.linkTTL = linkTTL
		f.tenantTTL = tenantTTL
	}
}

func NewRepositoryFactory(opts ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{}
	for _, opt := range opts {
		if opt != nil {
			opt(factory)
		}
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.linkStore != nil && f.tenantStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) LinkStore() core.LinkStore {
	if f == nil {
		return nil
	}
	return f.linkStore
}

func (f *RepositoryFactory) TenantStore() core.TenantStore {
	if f == nil {
		return nil
	}
	return f.tenantStore
}

// BaseLinkStore exposes the uncached store for callers that must bypass the
// cache, such as the click recorder sink and the maintenance sweeper.
func (f *RepositoryFactory) BaseLinkStore() *LinkStore {
	if f == nil {
		return nil
	}
	return f.baseLinks
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	linkRepo := repository.NewRepository[*linkRecord](f.db, linkHandlers())
	if validator, ok := linkRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid link repository wiring: %w", err)
		}
	}
	tenantRepo := repository.NewRepository[*tenantRecord](f.db, tenantHandlers())
	if validator, ok := tenantRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid tenant repository wiring: %w", err)
		}
	}
	domainRepo := repository.NewRepository[*domainBindingRecord](f.db, domainBindingHandlers())
	if validator, ok := domainRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid domain repository wiring: %w", err)
		}
	}

	f.baseLinks = &LinkStore{db: f.db, repo: linkRepo}
	f.baseTenants = &TenantStore{db: f.db, tenants: tenantRepo, domains: domainRepo}
	f.linkStore = f.baseLinks
	f.tenantStore = f.baseTenants

	if f.linkTTL > 0 {
		cacheService, err := newCacheService(f.linkTTL)
		if err != nil {
			return err
		}
		cached, err := NewCachedLinkStore(f.baseLinks, cacheService)
		if err != nil {
			return err
		}
		f.linkStore = cached
	}
	if f.tenantTTL > 0 {
		cacheService, err := newCacheService(f.tenantTTL)
		if err != nil {
			return err
		}
		cached, err := NewCachedTenantStore(f.baseTenants, cacheService)
		if err != nil {
			return err
		}
		f.tenantStore = cached
	}
	return nil
}

func newCacheService(ttl time.Duration) (repositorycache.CacheService, error) {
	config := repositorycache.DefaultConfig()
	config.TTL = ttl
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: build cache service: %w", err)
	}
	return service, nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
