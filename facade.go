package shortlink

import (
	"fmt"
	"reflect"

	"github.com/goliatone/go-shortlink/adapters/gocommand"
	shortlinkcommand "github.com/goliatone/go-shortlink/command"
	"github.com/goliatone/go-shortlink/core"
	shortlinkquery "github.com/goliatone/go-shortlink/query"
)

type CommandQueryService interface {
	shortlinkcommand.MutatingService
	shortlinkquery.LinkResolverReader
	shortlinkquery.LinkReader
	shortlinkquery.TenantReader
}

type Commands struct {
	CreateLink     *shortlinkcommand.CreateLinkCommand
	SetLinkActive  *shortlinkcommand.SetLinkActiveCommand
	SoftDeleteLink *shortlinkcommand.SoftDeleteLinkCommand
	RecordClick    *shortlinkcommand.RecordClickCommand
}

type Queries struct {
	ResolveLink     *shortlinkquery.ResolveLinkQuery
	GetLink         *shortlinkquery.GetLinkQuery
	ListTenantLinks *shortlinkquery.ListTenantLinksQuery
	GetTenant       *shortlinkquery.GetTenantQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	linksReader   shortlinkquery.TenantLinksReader
	clickRecorder core.ClickRecorder
}

func WithTenantLinksReader(reader shortlinkquery.TenantLinksReader) FacadeOption {
	return func(options *facadeOptions) {
		options.linksReader = reader
	}
}

func WithFacadeClickRecorder(recorder core.ClickRecorder) FacadeOption {
	return func(options *facadeOptions) {
		options.clickRecorder = recorder
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("shortlink: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	linksReader := cfg.linksReader
	if linksReader == nil {
		linksReader = resolveTenantLinksReader(service)
	}
	recorder := cfg.clickRecorder
	if recorder == nil {
		recorder = resolveClickRecorder(service)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		CreateLink:     shortlinkcommand.NewCreateLinkCommand(service),
		SetLinkActive:  shortlinkcommand.NewSetLinkActiveCommand(service),
		SoftDeleteLink: shortlinkcommand.NewSoftDeleteLinkCommand(service),
		RecordClick:    shortlinkcommand.NewRecordClickCommand(recorder),
	}
	facade.queries = Queries{
		ResolveLink:     shortlinkquery.NewResolveLinkQuery(service),
		GetLink:         shortlinkquery.NewGetLinkQuery(service),
		ListTenantLinks: shortlinkquery.NewListTenantLinksQuery(linksReader),
		GetTenant:       shortlinkquery.NewGetTenantQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

// Register binds the whole handler bundle to the go-command dispatcher and
// records it in the registry, so queue resolvers added to the adapter can
// mirror the commands into go-job. The returned group tears the bundle down
// as one unit.
func (f *Facade) Register(adapter *gocommand.RegistryAdapter) (*gocommand.SubscriptionGroup, error) {
	if f == nil {
		return nil, fmt.Errorf("shortlink: facade is required")
	}
	if adapter == nil {
		return nil, fmt.Errorf("shortlink: registry adapter is required")
	}

	group := &gocommand.SubscriptionGroup{}
	fail := func(err error) (*gocommand.SubscriptionGroup, error) {
		group.Unsubscribe()
		return nil, err
	}

	sub, err := gocommand.RegisterAndSubscribe[shortlinkcommand.CreateLinkMessage](adapter, f.commands.CreateLink)
	if err != nil {
		return fail(err)
	}
	group.Add(sub)

	sub, err = gocommand.RegisterAndSubscribe[shortlinkcommand.SetLinkActiveMessage](adapter, f.commands.SetLinkActive)
	if err != nil {
		return fail(err)
	}
	group.Add(sub)

	sub, err = gocommand.RegisterAndSubscribe[shortlinkcommand.SoftDeleteLinkMessage](adapter, f.commands.SoftDeleteLink)
	if err != nil {
		return fail(err)
	}
	group.Add(sub)

	sub, err = gocommand.RegisterAndSubscribe[shortlinkcommand.RecordClickMessage](adapter, f.commands.RecordClick)
	if err != nil {
		return fail(err)
	}
	group.Add(sub)

	sub, err = gocommand.RegisterAndSubscribeQuery[shortlinkquery.ResolveLinkMessage, core.Resolution](adapter, f.queries.ResolveLink)
	if err != nil {
		return fail(err)
	}
	group.Add(sub)

	sub, err = gocommand.RegisterAndSubscribeQuery[shortlinkquery.GetLinkMessage, core.ShortLink](adapter, f.queries.GetLink)
	if err != nil {
		return fail(err)
	}
	group.Add(sub)

	sub, err = gocommand.RegisterAndSubscribeQuery[shortlinkquery.ListTenantLinksMessage, shortlinkquery.LinkPage](adapter, f.queries.ListTenantLinks)
	if err != nil {
		return fail(err)
	}
	group.Add(sub)

	sub, err = gocommand.RegisterAndSubscribeQuery[shortlinkquery.GetTenantMessage, core.Tenant](adapter, f.queries.GetTenant)
	if err != nil {
		return fail(err)
	}
	group.Add(sub)

	return group, nil
}

func resolveClickRecorder(service CommandQueryService) core.ClickRecorder {
	if service == nil {
		return nil
	}
	if recorder, ok := service.(core.ClickRecorder); ok {
		return recorder
	}
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return nil
	}
	return provider.Dependencies().ClickRecorder
}

// resolveTenantLinksReader finds a list-capable reader when the caller did not
// supply one. The service does not expose listing directly; a repository
// factory that hands out its uncached link store does.
func resolveTenantLinksReader(service CommandQueryService) shortlinkquery.TenantLinksReader {
	if service == nil {
		return nil
	}
	if reader, ok := service.(shortlinkquery.TenantLinksReader); ok {
		return reader
	}
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return nil
	}
	deps := provider.Dependencies()
	if deps.RepositoryFactory == nil {
		return nil
	}

	factoryValue := reflect.ValueOf(deps.RepositoryFactory)
	if !factoryValue.IsValid() {
		return nil
	}
	if factoryValue.Kind() == reflect.Ptr && factoryValue.IsNil() {
		return nil
	}
	method := factoryValue.MethodByName("BaseLinkStore")
	if !method.IsValid() || method.Type().NumIn() != 0 || method.Type().NumOut() != 1 {
		return nil
	}

	results, ok := safeReflectCall(method)
	if !ok {
		return nil
	}
	if len(results) != 1 {
		return nil
	}
	candidate := results[0]
	if !candidate.IsValid() {
		return nil
	}
	if candidate.Kind() == reflect.Ptr && candidate.IsNil() {
		return nil
	}
	reader, ok := candidate.Interface().(shortlinkquery.TenantLinksReader)
	if !ok {
		return nil
	}
	return reader
}

func safeReflectCall(method reflect.Value) (_ []reflect.Value, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return method.Call(nil), true
}
