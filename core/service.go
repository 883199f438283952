package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-shortlink/canonical"
	"github.com/goliatone/go-shortlink/shortcode"
)

// Service is the resolution orchestrator. It owns link creation with the
// deterministic code derivation, lookup classification, and the lifecycle
// mutations. Stores, tenant resolution, and click accounting are injected.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	linkStore         LinkStore
	tenantStore       TenantStore
	tenantResolver    TenantResolver
	clickRecorder     ClickRecorder
	canonicalizer     Canonicalizer
	codeGenerator     CodeGenerator
	now               func() time.Time
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	LinkStore         LinkStore
	TenantStore       TenantStore
	TenantResolver    TenantResolver
	ClickRecorder     ClickRecorder
	Canonicalizer     Canonicalizer
	CodeGenerator     CodeGenerator
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("shortlink", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("shortlink"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.canonicalizer == nil {
		builder.canonicalizer = canonical.Canonicalize
	}
	if builder.codeGenerator == nil {
		builder.codeGenerator = shortcode.Generate
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if (builder.linkStore == nil || builder.tenantStore == nil) && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			provider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if provider != nil {
				if builder.linkStore == nil {
					builder.linkStore = provider.LinkStore()
				}
				if builder.tenantStore == nil {
					builder.tenantStore = provider.TenantStore()
				}
			}
		} else if provider, ok := builder.repositoryFactory.(StoreProvider); ok {
			if builder.linkStore == nil {
				builder.linkStore = provider.LinkStore()
			}
			if builder.tenantStore == nil {
				builder.tenantStore = provider.TenantStore()
			}
		}
	}
	if builder.linkStore == nil {
		builder.linkStore = NewMemoryLinkStore()
	}
	if builder.tenantStore == nil {
		builder.tenantStore = NewMemoryTenantStore()
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		linkStore:         builder.linkStore,
		tenantStore:       builder.tenantStore,
		tenantResolver:    builder.tenantResolver,
		clickRecorder:     builder.clickRecorder,
		canonicalizer:     builder.canonicalizer,
		codeGenerator:     builder.codeGenerator,
		now:               builder.now,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		LinkStore:         s.linkStore,
		TenantStore:       s.tenantStore,
		TenantResolver:    s.tenantResolver,
		ClickRecorder:     s.clickRecorder,
		Canonicalizer:     s.canonicalizer,
		CodeGenerator:     s.codeGenerator,
	}
}

// CreateOrReuse mints a link for the raw URL within a tenant, or returns the
// existing link when the tenant already shortened the same canonical URL.
// Collisions on the derived code retry with incremented salts; the store's
// uniqueness constraints arbitrate every race.
func (s *Service) CreateOrReuse(ctx context.Context, req CreateLinkRequest) (link ShortLink, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"tenant_id": req.TenantID,
	}
	defer func() {
		if link.Code != "" {
			fields["code"] = link.Code
		}
		s.observeOperation(ctx, startedAt, "create_or_reuse", err, fields)
	}()

	ctx, cancel := s.withRequestTimeout(ctx)
	defer cancel()

	tenantID := strings.TrimSpace(req.TenantID)
	if tenantID == "" {
		err = s.mapError(fmt.Errorf("%w: tenant id is required", ErrInvalidInput))
		return ShortLink{}, err
	}
	if strings.TrimSpace(req.RawURL) == "" {
		err = s.mapError(fmt.Errorf("%w: raw url is required", ErrInvalidInput))
		return ShortLink{}, err
	}

	canonicalURL, err := s.canonicalizer(req.RawURL)
	if err != nil {
		err = s.mapError(fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return ShortLink{}, err
	}

	existing, findErr := s.linkStore.FindByTenantAndCanonicalURL(ctx, tenantID, canonicalURL)
	if findErr == nil {
		link = existing
		return link, nil
	}
	if !errors.Is(findErr, ErrLinkNotFound) {
		err = s.mapError(findErr)
		return ShortLink{}, err
	}

	now := s.now()
	for salt := 0; salt < s.config.MaxCodeRetries; salt++ {
		code, genErr := s.codeGenerator(canonicalURL, tenantID, salt, s.config.CodeLength)
		if genErr != nil {
			err = s.mapError(fmt.Errorf("%w: %v", ErrInvalidInput, genErr))
			return ShortLink{}, err
		}

		candidate := ShortLink{
			TenantID:     tenantID,
			Code:         code,
			CanonicalURL: canonicalURL,
			OriginalURL:  req.RawURL,
			MaxClicks:    req.Options.MaxClicks,
			Active:       true,
			ExpiresAt:    req.Options.ExpiresAt,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if salt > 0 {
			fields["salt"] = salt
		}

		inserted, insertErr := s.linkStore.InsertIfAbsent(ctx, candidate)
		if insertErr == nil {
			link = inserted
			return link, nil
		}
		if errors.Is(insertErr, ErrDuplicateCanonicalURL) {
			winner, refetchErr := s.linkStore.FindByTenantAndCanonicalURL(ctx, tenantID, canonicalURL)
			if refetchErr != nil {
				err = s.mapError(refetchErr)
				return ShortLink{}, err
			}
			link = winner
			return link, nil
		}
		if errors.Is(insertErr, ErrDuplicateCode) {
			continue
		}
		err = s.mapError(insertErr)
		return ShortLink{}, err
	}

	err = s.mapError(fmt.Errorf("%w after %d attempts", ErrCollisionExhausted, s.config.MaxCodeRetries))
	return ShortLink{}, err
}

// Resolve looks up a code within a tenant, classifies usability, and hands a
// click event to the recorder. Click accounting never delays or fails the
// redirect decision.
func (s *Service) Resolve(ctx context.Context, req ResolveRequest) (resolution Resolution, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"tenant_id": req.TenantID,
		"code":      req.Code,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "resolve", err, fields)
	}()

	ctx, cancel := s.withRequestTimeout(ctx)
	defer cancel()

	tenantID := strings.TrimSpace(req.TenantID)
	code := strings.TrimSpace(req.Code)
	if tenantID == "" || code == "" {
		err = s.mapError(fmt.Errorf("%w: tenant id and code are required", ErrInvalidInput))
		return Resolution{}, err
	}
	// Codes outside the alphabet (favicon.ico, robots.txt) can never match a
	// stored link, so they read as absent rather than malformed requests.
	if !shortcode.IsValid(code) {
		err = s.mapError(fmt.Errorf("%w: code=%s", ErrLinkNotFound, code))
		return Resolution{}, err
	}

	link, findErr := s.linkStore.FindByTenantAndCode(ctx, tenantID, code)
	if findErr != nil {
		err = s.mapError(findErr)
		return Resolution{}, err
	}

	validity, reason := link.Validity(s.now())
	switch validity {
	case LinkNotFound:
		err = s.mapError(ErrLinkNotFound)
		return Resolution{}, err
	case LinkExpired:
		fields["expiry_reason"] = string(reason)
		err = s.mapError(s.errorFactory(
			fmt.Sprintf("link %q is expired", code),
			goerrors.CategoryOperation,
		).WithTextCode(ServiceErrorExpired).
			WithMetadata(map[string]any{"reason": string(reason)}))
		return Resolution{}, err
	case LinkInactive:
		err = s.mapError(ErrLinkInactive)
		return Resolution{}, err
	}

	if s.clickRecorder != nil {
		s.clickRecorder.Record(ClickEvent{
			LinkID:     link.ID,
			TenantID:   link.TenantID,
			Code:       link.Code,
			ClientIP:   req.ClientIP,
			OccurredAt: s.now(),
		})
	}

	resolution = Resolution{Link: link, OriginalURL: link.OriginalURL}
	return resolution, nil
}

// GetLink fetches a link by id regardless of usability. Soft-deleted links
// still read as not found.
func (s *Service) GetLink(ctx context.Context, id string) (link ShortLink, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"link_id": id,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_link", err, fields)
	}()

	ctx, cancel := s.withRequestTimeout(ctx)
	defer cancel()

	if strings.TrimSpace(id) == "" {
		err = s.mapError(fmt.Errorf("%w: link id is required", ErrInvalidInput))
		return ShortLink{}, err
	}
	link, err = s.linkStore.FindByID(ctx, id)
	if err != nil {
		err = s.mapError(err)
		return ShortLink{}, err
	}
	if link.Deleted {
		err = s.mapError(ErrLinkNotFound)
		return ShortLink{}, err
	}
	return link, nil
}

// SetLinkActive toggles the manual kill switch on a link.
func (s *Service) SetLinkActive(ctx context.Context, id string, active bool) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"link_id": id,
		"active":  active,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "set_link_active", err, fields)
	}()

	ctx, cancel := s.withRequestTimeout(ctx)
	defer cancel()

	if strings.TrimSpace(id) == "" {
		err = s.mapError(fmt.Errorf("%w: link id is required", ErrInvalidInput))
		return err
	}
	if err = s.linkStore.SetActive(ctx, id, active); err != nil {
		err = s.mapError(err)
		return err
	}
	return nil
}

// SoftDeleteLink retires a link. The row stays behind for click history, but
// lookups read it as absent and the uniqueness slots free up.
func (s *Service) SoftDeleteLink(ctx context.Context, id string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"link_id": id,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "soft_delete_link", err, fields)
	}()

	ctx, cancel := s.withRequestTimeout(ctx)
	defer cancel()

	if strings.TrimSpace(id) == "" {
		err = s.mapError(fmt.Errorf("%w: link id is required", ErrInvalidInput))
		return err
	}
	if err = s.linkStore.SoftDelete(ctx, id); err != nil {
		err = s.mapError(err)
		return err
	}
	return nil
}

// Tenant returns a tenant by id.
func (s *Service) Tenant(ctx context.Context, id string) (tenant Tenant, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"tenant_id": id,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_tenant", err, fields)
	}()

	ctx, cancel := s.withRequestTimeout(ctx)
	defer cancel()

	if strings.TrimSpace(id) == "" {
		err = s.mapError(fmt.Errorf("%w: tenant id is required", ErrInvalidInput))
		return Tenant{}, err
	}
	tenant, err = s.tenantStore.Get(ctx, id)
	if err != nil {
		err = s.mapError(err)
		return Tenant{}, err
	}
	return tenant, nil
}

// ResolveTenant maps a serving host to a tenant id using the configured
// resolver; without one every host maps to the default tenant.
func (s *Service) ResolveTenant(ctx context.Context, host string) (string, error) {
	if s == nil {
		return "", ErrTenantNotFound
	}
	if s.tenantResolver == nil {
		return s.config.DefaultTenantID, nil
	}
	tenantID, err := s.tenantResolver.Resolve(ctx, host)
	if err != nil {
		return "", s.mapError(err)
	}
	return tenantID, nil
}

func (s *Service) withRequestTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s == nil || s.config.RequestTimeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.config.RequestTimeout)
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
