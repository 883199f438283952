package shortlink

import "github.com/goliatone/go-shortlink/core"

type Config = core.Config

type CacheConfig = core.CacheConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type LinkStore = core.LinkStore
type TenantStore = core.TenantStore
type TenantResolver = core.TenantResolver
type ClickRecorder = core.ClickRecorder
type StoreProvider = core.StoreProvider
type RepositoryStoreFactory = core.RepositoryStoreFactory
type Canonicalizer = core.Canonicalizer
type CodeGenerator = core.CodeGenerator
type ConfigProvider = core.ConfigProvider
type OptionsResolver = core.OptionsResolver
type ErrorFactory = core.ErrorFactory
type ErrorMapper = core.ErrorMapper
type MetricsRecorder = core.MetricsRecorder

type ShortLink = core.ShortLink
type Tenant = core.Tenant
type Resolution = core.Resolution
type ClickEvent = core.ClickEvent

type CreateLinkRequest = core.CreateLinkRequest

type ResolveRequest = core.ResolveRequest

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithLinkStore         = core.WithLinkStore
	WithTenantStore       = core.WithTenantStore
	WithTenantResolver    = core.WithTenantResolver
	WithClickRecorder     = core.WithClickRecorder
	WithCanonicalizer     = core.WithCanonicalizer
	WithCodeGenerator     = core.WithCodeGenerator
	WithClock             = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
